package analysis

import "context"

// Completer sends a single prompt to an LLM and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
