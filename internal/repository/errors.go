package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnsupportedField = errors.New("unsupported distinct field")
)
