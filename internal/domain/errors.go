package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// FailureKind classifies generation failures.
type FailureKind string

const (
	FailureInvalidRequest      FailureKind = "InvalidRequest"
	FailureAuth                FailureKind = "AuthError"
	FailureRateLimited         FailureKind = "RateLimited"
	FailureTimeout             FailureKind = "TimeoutError"
	FailureProvider            FailureKind = "ProviderError"
	FailureUnexpectedShape     FailureKind = "UnexpectedResponseShape"
	FailureProviderUnavailable FailureKind = "ProviderUnavailable"
	FailureNoProvider          FailureKind = "NoProviderConfigured"
	FailureCancelled           FailureKind = "Cancelled"
)

// Failure is a typed generation error carrying the failure class and the
// provider that produced it.
type Failure struct {
	Kind     FailureKind
	Provider string
	Message  string
}

func (f *Failure) Error() string {
	if f.Provider == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Kind, f.Provider, f.Message)
}

// Retryable reports whether the coordinator may fall through to the next
// candidate after this failure. Only adapter-level kinds are retryable.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case FailureAuth, FailureRateLimited, FailureTimeout, FailureProvider, FailureUnexpectedShape:
		return true
	}
	return false
}

// NewFailure builds a typed failure with a formatted message.
func NewFailure(kind FailureKind, provider, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Context cancellation
// maps to Cancelled; any other plain error maps to ProviderError.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureCancelled
	}
	return FailureProvider
}
