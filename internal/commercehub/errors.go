package commercehub

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrFormat         = errors.New("format error")
	ErrTransport      = errors.New("transport error")
	ErrNotImplemented = errors.New("not implemented")
)

type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return "format error"
	}
	return "format error: " + e.Reason
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("transport error: http %d", e.StatusCode)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
