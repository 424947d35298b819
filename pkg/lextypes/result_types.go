// Package lextypes defines the uniform result envelope for lexshell.
// Every remote operation resolves to a Result; callers check Error before trusting Data.
package lextypes

import "fmt"

// APIError is a normalized remote failure.
// Status is the HTTP status for backend rejections, 0 for transport failures
// and 500 for anything unexpected on the client side.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Result wraps the outcome of one remote call.
// Exactly one of Data and Error is meaningful; Count is only set by list endpoints.
type Result[T any] struct {
	Data   T
	Error  *APIError
	Status int
	Count  int
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Error == nil
}

// Err returns the envelope error as an error value, or nil on success.
func (r Result[T]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}
