package http

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"cursor-paging/pkg/gallery"

	httputils "github.com/twitsprout/tools/http"
	"github.com/twitsprout/tools/requestid"
)

const (
	defaultPage  = 1
	defaultSize  = 10
	defaultAfter = 0
)

// PagingPictures returns a page of pictures by skipping the rows of every
// previous page.
func (h *Handler) PagingPictures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := r.URL.Query()
	reqID := requestid.Get(ctx)

	req, err := parsePagingRequest(v)
	if err != nil {
		h.Logger.Error("[PagingPictures] error parsing request",
			"request_id", reqID,
			"details", err.Error())
		_ = httputils.WriteJSONError(w, v, err.Error(), http.StatusBadRequest)
		return
	}

	total, err := h.PictureStore.CountPictures(ctx)
	if err != nil {
		h.internalError(w, v, "[PagingPictures] error counting pictures", reqID, err)
		return
	}

	rows, err := h.PictureStore.ListPicturesPage(ctx, req)
	if err != nil {
		h.internalError(w, v, "[PagingPictures] error listing pictures", reqID, err)
		return
	}
	h.Logger.Info("Using Paging",
		"request_id", reqID,
		"sql", rows.SQL,
	)

	res := gallery.PagingRes{
		Page:       req.Page,
		Size:       req.Size,
		Pictures:   nonNil(rows.Pictures),
		TotalCount: total,
		SQL:        rows.SQL,
	}
	_ = httputils.WriteJSON(w, v, res, http.StatusOK)
}

// CursorPictures returns the pictures after the requested id.
func (h *Handler) CursorPictures(w http.ResponseWriter, r *http.Request) {
	h.cursorPictures(w, r, "[CursorPictures]", h.PictureStore.ListPicturesAfter)
}

// CursorPicturesSQL is CursorPictures answered by the hand-written query.
func (h *Handler) CursorPicturesSQL(w http.ResponseWriter, r *http.Request) {
	h.cursorPictures(w, r, "[CursorPicturesSQL]", h.PictureStore.ListPicturesAfterSQL)
}

type listAfterFn func(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error)

func (h *Handler) cursorPictures(w http.ResponseWriter, r *http.Request, name string, list listAfterFn) {
	ctx := r.Context()
	v := r.URL.Query()
	reqID := requestid.Get(ctx)

	req, err := parseCursorRequest(v)
	if err != nil {
		h.Logger.Error(name+" error parsing request",
			"request_id", reqID,
			"details", err.Error())
		_ = httputils.WriteJSONError(w, v, err.Error(), http.StatusBadRequest)
		return
	}

	total, err := h.PictureStore.CountPictures(ctx)
	if err != nil {
		h.internalError(w, v, name+" error counting pictures", reqID, err)
		return
	}

	rows, err := list(ctx, req)
	if err != nil {
		h.internalError(w, v, name+" error listing pictures", reqID, err)
		return
	}
	h.Logger.Info("Using Cursor",
		"request_id", reqID,
		"sql", rows.SQL,
	)

	res := gallery.CursorRes{
		TotalCount: total,
		Pictures:   nonNil(rows.Pictures),
		Cursor:     gallery.NewCursor(rows.Pictures),
		SQL:        rows.SQL,
	}
	_ = httputils.WriteJSON(w, v, res, http.StatusOK)
}

func (h *Handler) internalError(w http.ResponseWriter, v url.Values, msg, reqID string, err error) {
	h.Logger.Error(msg,
		"request_id", reqID,
		"details", err.Error(),
	)
	_ = httputils.WriteJSONError(w, v, err.Error(), http.StatusInternalServerError)
}

func parsePagingRequest(v url.Values) (gallery.PagingReq, error) {
	req := gallery.PagingReq{Page: defaultPage, Size: defaultSize}

	page, err := queryInt(v, "page", defaultPage)
	if err != nil || page < 1 {
		return req, gallery.ErrInvalidPage
	}
	size, err := queryInt(v, "size", defaultSize)
	if err != nil || size < 1 {
		return req, gallery.ErrInvalidSize
	}

	// (page-1)*size must fit in an int to be used as an offset.
	if page-1 > math.MaxInt/size {
		return req, gallery.ErrPageOutOfRange
	}

	req.Page, req.Size = page, size
	return req, nil
}

func parseCursorRequest(v url.Values) (gallery.CursorReq, error) {
	req := gallery.CursorReq{After: defaultAfter, Size: defaultSize}

	after, err := queryInt(v, "after", defaultAfter)
	if err != nil || after < 0 {
		return req, gallery.ErrInvalidAfter
	}
	size, err := queryInt(v, "size", defaultSize)
	if err != nil || size < 1 {
		return req, gallery.ErrInvalidSize
	}

	req.After, req.Size = int64(after), size
	return req, nil
}

// queryInt parses the named query parameter, returning def when it is
// absent.
func queryInt(v url.Values, name string, def int) (int, error) {
	if _, ok := v[name]; !ok {
		return def, nil
	}
	return strconv.Atoi(v.Get(name))
}

func nonNil(pictures []gallery.Picture) []gallery.Picture {
	if pictures == nil {
		return []gallery.Picture{}
	}
	return pictures
}
