// Package assistant turns a user's programming question into a single
// chat-completion request against the OpenAI API and normalizes the outcome.
//
// The package exposes an interface (Assistant) rather than the concrete
// client so that handlers can be tested with fakes — the real client makes
// a network round trip per call, which has no place in a unit test.
package assistant

import (
	"context"
	"time"
)

// Request carries one question to the assistant.
//
// CodeContext is optional: when empty, its line is dropped from the prompt
// entirely rather than left blank. Language is a free-form tag ("python",
// "go", ...); callers default it before building the request.
type Request struct {
	Query       string
	CodeContext string
	Language    string
}

// Result is the uniform outcome of a Process call. Exactly one of the two
// shapes occurs:
//
//   - Success true: Response, TokensUsed, ResponseTime, and Model are set
//   - Success false: Error holds a human-readable message
//
// Failures never escape Process as Go errors — classification happens inside
// the client and every outcome is a Result.
type Result struct {
	Success      bool          `json:"success"`
	Response     string        `json:"response,omitempty"`
	TokensUsed   int           `json:"tokens_used,omitempty"`
	ResponseTime time.Duration `json:"-"`
	Model        string        `json:"model,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Assistant is the behaviour handlers depend on.
type Assistant interface {
	Process(ctx context.Context, req Request) *Result
}
