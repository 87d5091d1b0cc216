package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
)

// Request is one instruction for the completion service.
type Request struct {
	System string
	Prompt string
}

// Completer sends a single instruction to an external text completion service
// and returns the raw response text. Every call is a billable network request;
// implementations never retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Provider names accepted in configuration
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// timeoutCompleter bounds every call with a deadline
type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout wraps c so each Complete call runs under its own deadline.
// A non-positive timeout returns c unchanged.
func WithTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return c
	}
	return &timeoutCompleter{next: c, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, req)
}

// callError tags a provider failure with the model call sentinel.
func callError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrModelCall, provider, err)
}
