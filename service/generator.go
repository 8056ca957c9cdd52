package service

import (
	"context"

	"gemini-proxy/gemini"
)

// Generator abstracts the upstream generateContent call used by the relay.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Enabled reports whether the upstream credential is configured.
	Enabled() bool
	// GenerateContent performs a single upstream call. Failures should be *gemini.Error;
	// anything else is treated as an internal error.
	GenerateContent(ctx context.Context, body gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

var _ Generator = (*gemini.Client)(nil)
