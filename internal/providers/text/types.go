package text

import "context"

// Completer is the contract implemented by all text providers: a single
// prompt in, the raw completion text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
