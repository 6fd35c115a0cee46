// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ErrSimulated is a sentinel error for testing failure paths.
var ErrSimulated = errors.New("simulated error for testing")

// ContextWithTimeout создаёт context с timeout и отменяет его при завершении теста.
func ContextWithTimeout(t testing.TB, d time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)

	return ctx
}
