package domain

import "errors"

var (
	ErrInvalidEnum = errors.New("invalid enum value")
)
