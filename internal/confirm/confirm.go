// Package confirm implements the re-type-the-identifier gate that precedes
// every destructive or status-changing commit.
package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/equipment-inventory/internal"
)

// Prompter asks the operator for one line of input.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// Confirmer is what services depend on.
type Confirmer interface {
	Confirm(ctx context.Context, kind, identifier string) error
}

type Protocol struct {
	prompter    Prompter
	cancelToken string
	maxAttempts int
	logger      *slog.Logger
}

func NewProtocol(prompter Prompter, cancelToken string, maxAttempts int, logger *slog.Logger) *Protocol {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Protocol{
		prompter:    prompter,
		cancelToken: cancelToken,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Confirm succeeds only when the operator types identifier exactly. The
// cancel token aborts at once; anything else re-prompts until maxAttempts
// is spent.
func (p *Protocol) Confirm(ctx context.Context, kind, identifier string) error {
	label := fmt.Sprintf("Type the %s %q to confirm (or %q to abort): ", kind, identifier, p.cancelToken)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		input, err := p.prompter.Prompt(ctx, label)
		if err != nil {
			p.logger.Warn("confirmation prompt failed", "kind", kind, "identifier", identifier, "error", err)
			return internal.ErrConfirmationCancelled.WithCause(err)
		}
		input = strings.TrimSpace(input)

		if input == p.cancelToken {
			p.logger.Info("confirmation cancelled", "kind", kind, "identifier", identifier)
			return internal.ErrConfirmationCancelled
		}
		if input == identifier {
			return nil
		}

		p.logger.Warn("confirmation mismatch",
			"kind", kind,
			"identifier", identifier,
			"attempt", attempt,
			"max_attempts", p.maxAttempts)
	}

	return internal.ErrConfirmationMismatch.WithMessage("confirmation of %s %q did not match", kind, identifier)
}

// AutoConfirm approves everything. Tests use it where the prompt is not
// under test.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, string, string) error { return nil }
