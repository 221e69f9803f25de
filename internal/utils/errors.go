package util

import "errors"

var (
	ErrInvalidPageID       = errors.New("invalid page id")
	ErrInvalidPageSize     = errors.New("invalid page size")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidInitialPages = errors.New("initial pages must be positive")
	ErrMaxMapSizeExceeded  = errors.New("size exceeds maximum mapping size")
	ErrPageOutOfBounds     = errors.New("page out of bounds")
	ErrFileManagerNil      = errors.New("file manager is nil")
	ErrInvalidPoolSize     = errors.New("invalid pool size")
	ErrInvalidReplacerK    = errors.New("replacer k must be at least 1")
	ErrDiskManagerNil      = errors.New("disk manager is nil")
	ErrPoolFull            = errors.New("buffer pool full: no frame can be evicted")
	ErrPageNotFound        = errors.New("page not resident in buffer pool")
)
