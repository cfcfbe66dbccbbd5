package internal

import (
	"context"

	"cursor-paging/pkg/gallery"
)

// PictureStore reads pages of pictures.
type PictureStore interface {
	CountPictures(ctx context.Context) (int, error)
	ListPicturesPage(ctx context.Context, req gallery.PagingReq) (gallery.PictureRows, error)
	ListPicturesAfter(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error)
	ListPicturesAfterSQL(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error)
}

// SeedStore is the part of the store the seeder needs around its writer.
type SeedStore interface {
	Migrate(ctx context.Context) error
	HasPictures(ctx context.Context) (bool, error)
	SyncPictureSequence(ctx context.Context) error
}

// CountInvalidator drops a cached picture count.
type CountInvalidator interface {
	Invalidate(ctx context.Context) error
}
