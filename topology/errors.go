package topology

import (
	"github.com/pkg/errors"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrConflict      = errors.New("conflict")
)
