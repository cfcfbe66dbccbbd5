package http

import (
	"cursor-paging/internal"

	"github.com/gorilla/mux"
	"github.com/twitsprout/tools"
)

type Handler struct {
	Version      string
	AppName      string
	router       *mux.Router
	Logger       tools.Logger
	PictureStore internal.PictureStore

	// RateLimit is the number of requests per second served before requests
	// start waiting. Zero disables the limit.
	RateLimit float64
}
