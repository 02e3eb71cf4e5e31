package static

import "errors"

var (
	ErrNoIndex  = errors.New("static: index file not found")
	ErrIndexDir = errors.New("static: index is a directory")
)
