package mock

import (
	"context"

	"cursor-paging/pkg/gallery"
)

// PictureStore defines a mock of the store responsible for reading pictures.
type PictureStore struct {
	CountPicturesFn        func(ctx context.Context) (int, error)
	ListPicturesPageFn     func(ctx context.Context, req gallery.PagingReq) (gallery.PictureRows, error)
	ListPicturesAfterFn    func(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error)
	ListPicturesAfterSQLFn func(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error)
}

// CountPictures proxies the request to the CountPicturesFn that's injected
// when the mock store is created.
func (s *PictureStore) CountPictures(ctx context.Context) (int, error) {
	return s.CountPicturesFn(ctx)
}

// ListPicturesPage proxies the request to the ListPicturesPageFn that's
// injected when the mock store is created.
func (s *PictureStore) ListPicturesPage(ctx context.Context, req gallery.PagingReq) (gallery.PictureRows, error) {
	return s.ListPicturesPageFn(ctx, req)
}

// ListPicturesAfter proxies the request to the ListPicturesAfterFn that's
// injected when the mock store is created.
func (s *PictureStore) ListPicturesAfter(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error) {
	return s.ListPicturesAfterFn(ctx, req)
}

// ListPicturesAfterSQL proxies the request to the ListPicturesAfterSQLFn
// that's injected when the mock store is created.
func (s *PictureStore) ListPicturesAfterSQL(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error) {
	return s.ListPicturesAfterSQLFn(ctx, req)
}
