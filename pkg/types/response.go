// Package types holds the JSON bodies the API writes.
package types

// Envelope is the body of every 2xx answer: {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// Failure is the body of every error answer: {"error": {...}}.
type Failure struct {
	Error Problem `json:"error"`
}

// Problem is the client-visible form of a typed error. Retryable mirrors the
// code's metadata; Details is only set for codes that allow it.
type Problem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}
