// Package llm wraps the text-completion provider behind a small interface so
// callers can be exercised with canned responses.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyCompletion is returned when the provider answers without text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrDisabled is returned by the Disabled generator.
	ErrDisabled = errors.New("llm: provider disabled")
)

// Request is a single chat completion: a system persona, a user prompt and
// the sampling budget.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// Generator produces one completion per call. Implementations make a single
// attempt and honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Static always returns the same text.
type Static string

// Generate implements Generator.
func (s Static) Generate(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(s), nil
}

// Disabled fails every call; used when no provider is configured.
type Disabled struct{}

// Generate implements Generator.
func (Disabled) Generate(context.Context, Request) (string, error) {
	return "", ErrDisabled
}
