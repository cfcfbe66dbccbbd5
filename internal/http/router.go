package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httputils "github.com/twitsprout/tools/http"
)

// Handler mounts all the handlers at the appropriate routes and adds any required middleware.
func (h *Handler) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(httputils.TimeoutMiddleware(1 * time.Minute))
	r.Use(httputils.RequestIDMiddleware)
	r.Use(httputils.RealIPMiddleware)
	r.Use(httputils.LimitReaderMiddleware(1 << 20))
	r.Use(httputils.LoggingMiddleware(h.Logger))
	r.Use(httputils.RecoverMiddleware(h.Logger, httputils.InternalServerErrorHandler(h.Logger)))
	r.Use(httputils.MaxConnectionsMiddleware(5000, httputils.ServiceUnavailableHandler(h.Logger)))
	r.Use(httputils.ConcurrentLimitMiddleware(250, httputils.ServiceUnavailableHandler(h.Logger)))
	if h.RateLimit > 0 {
		r.Use(RateLimitMiddleware(h.RateLimit, h.Logger))
	}

	r.MethodNotAllowedHandler = httputils.MethodNotAllowedHandler(h.Logger)
	r.NotFoundHandler = httputils.NotFoundHandler(h.Logger)

	versionHandler := httputils.VersionHandler(h.AppName, h.Version, h.Logger)
	r.Methods("GET").Path("/").Name("root").Handler(versionHandler)
	r.Methods("GET").Path("/version").Name("version").Handler(versionHandler)

	pictures := r.PathPrefix("/pictures").Subrouter()

	pictures.Methods("GET").Path("/paging").Name("paging_pictures").HandlerFunc(h.PagingPictures)
	pictures.Methods("GET").Path("/cursor").Name("cursor_pictures").HandlerFunc(h.CursorPictures)
	pictures.Methods("GET").Path("/dapper").Name("cursor_pictures_sql").HandlerFunc(h.CursorPicturesSQL)
	h.router = r
	return r
}
