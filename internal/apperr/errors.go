// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNotReady            = errors.New("graph not built yet")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrDecode              = errors.New("decode failed")
)
