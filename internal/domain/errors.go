package domain

import "errors"

var (
	ErrUnknownTitle = errors.New("unknown title")
	ErrEmptyCatalog = errors.New("catalog has no usable rows")
)
