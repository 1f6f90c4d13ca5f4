package ai

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every provider-side failure (network, quota,
// malformed response) so callers can map it to a single upstream-error
// response instead of leaking transport details.
var ErrUnavailable = errors.New("generation service unavailable")

// Generator produces a completion for a composed prompt. Implementations are
// synchronous; cancellation and deadlines come from ctx.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
