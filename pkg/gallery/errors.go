package gallery

import "errors"

var ErrInvalidPage = errors.New("page must be an integer greater than 0")
var ErrInvalidSize = errors.New("size must be an integer greater than 0")
var ErrInvalidAfter = errors.New("after must be an integer greater than or equal to 0")
var ErrUnknownStrategy = errors.New("unknown seed strategy")
var ErrUnknownDialect = errors.New("unknown database dialect")
var ErrPageOutOfRange = errors.New("page is too large for the requested size")
