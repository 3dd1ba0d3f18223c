package ai

import "context"

// Provider completes a prompt against some model. Used to generate question
// pools at module bootstrap.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
