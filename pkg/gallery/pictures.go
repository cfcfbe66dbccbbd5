package gallery

import "gopkg.in/guregu/null.v3"

type Picture struct {
	ID      int64     `json:"id" db:"id"`
	URL     string    `json:"url" db:"url"`
	Created Timestamp `json:"created" db:"created"`
}

// PictureRows is a page of pictures read from the store together with the
// SQL text that produced it.
type PictureRows struct {
	Pictures []Picture
	SQL      string
}

type PagingReq struct {
	Page int
	Size int
}

// Offset returns the number of rows skipped before the requested page.
func (r PagingReq) Offset() int {
	return (r.Page - 1) * r.Size
}

type PagingRes struct {
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	Pictures   []Picture `json:"pictures"`
	TotalCount int       `json:"totalCount"`
	SQL        string    `json:"sql"`
}

type CursorReq struct {
	After int64
	Size  int
}

type Cursor struct {
	Before null.Int `json:"before"`
	After  null.Int `json:"after"`
}

type CursorRes struct {
	TotalCount int       `json:"totalCount"`
	Pictures   []Picture `json:"pictures"`
	Cursor     Cursor    `json:"cursor"`
	SQL        string    `json:"sql"`
}

// NewCursor returns the bounds of a page ordered by id. Both bounds are null
// for an empty page.
func NewCursor(pictures []Picture) Cursor {
	if len(pictures) == 0 {
		return Cursor{}
	}
	return Cursor{
		Before: null.IntFrom(pictures[0].ID),
		After:  null.IntFrom(pictures[len(pictures)-1].ID),
	}
}
