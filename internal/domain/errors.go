package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidRating     = errors.New("rating must be an integer from 1 to 5")
	ErrMissingCenter     = errors.New("sort=distance requires center")
	ErrInvalidSortKey    = errors.New("invalid sort key")
	ErrInvalidPage       = errors.New("page must be a positive integer")
	ErrInvalidSize       = errors.New("size must be a positive integer")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidRadius     = errors.New("radius must be a non-negative number")
)
