// Package utils holds small helpers shared by the CLI and the TUI.
package utils

import (
	"context"
	"errors"
	"time"
)

// Deadlines for backend work started without a caller deadline
const (
	DefaultTimeout = 10 * time.Second
	BatchTimeout   = 30 * time.Second
)

// WithTimeout bounds a single backend round trip
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithLongTimeout bounds work that fans out into several requests, such as
// hydrating a whole feed
func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, BatchTimeout)
}

// IsContextError reports whether err was caused by cancellation or an
// expired deadline
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
