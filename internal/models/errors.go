package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDataNotFound   = errors.New("data not found")
	ErrDivisionByZero = errors.New("division by zero")
)

// LayerFetchError records a failed render request for a single year.
type LayerFetchError struct {
	Year   int
	Layers []string
	Err    error
}

func (e *LayerFetchError) Error() string {
	return fmt.Sprintf("fetch layers [%s] for %d: %v", strings.Join(e.Layers, ","), e.Year, e.Err)
}

func (e *LayerFetchError) Unwrap() error {
	return e.Err
}
