package confirm_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
)

type scriptedPrompter struct {
	answers []string
	asked   int
	err     error
}

func (p *scriptedPrompter) Prompt(_ context.Context, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.asked >= len(p.answers) {
		return "", errors.New("no more input")
	}
	a := p.answers[p.asked]
	p.asked++
	return a, nil
}

var _ = Describe("Protocol", func() {
	var (
		prompter *scriptedPrompter
		protocol *confirm.Protocol
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		prompter = &scriptedPrompter{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		protocol = confirm.NewProtocol(prompter, "cancel", 3, logger)
	})

	It("should accept the exact identifier", func() {
		prompter.answers = []string{"PC-1001"}

		Expect(protocol.Confirm(ctx, "tag", "PC-1001")).To(Succeed())
		Expect(prompter.asked).To(Equal(1))
	})

	It("should ignore surrounding whitespace", func() {
		prompter.answers = []string{"  PC-1001\n"}

		Expect(protocol.Confirm(ctx, "tag", "PC-1001")).To(Succeed())
	})

	It("should treat a different case as a mismatch", func() {
		prompter.answers = []string{"pc-1001", "pc-1001", "pc-1001"}

		err := protocol.Confirm(ctx, "tag", "PC-1001")

		Expect(errors.Is(err, internal.ErrConfirmationMismatch)).To(BeTrue())
	})

	It("should re-prompt after a mismatch and accept a later match", func() {
		prompter.answers = []string{"PC-100", "PC-1001"}

		Expect(protocol.Confirm(ctx, "tag", "PC-1001")).To(Succeed())
		Expect(prompter.asked).To(Equal(2))
	})

	It("should fail with a mismatch once attempts are spent", func() {
		prompter.answers = []string{"a", "b", "c", "PC-1001"}

		err := protocol.Confirm(ctx, "tag", "PC-1001")

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeConfirmationMismatch))
		Expect(appErr.Code).To(Equal(internal.ErrCodeConfirmationMismatch))
		Expect(prompter.asked).To(Equal(3))
	})

	It("should abort immediately on the cancel token", func() {
		prompter.answers = []string{"cancel", "PC-1001"}

		err := protocol.Confirm(ctx, "tag", "PC-1001")

		Expect(errors.Is(err, internal.ErrConfirmationCancelled)).To(BeTrue())
		Expect(prompter.asked).To(Equal(1))
	})

	It("should treat a prompt failure as a cancellation", func() {
		prompter.err = errors.New("stdin closed")

		err := protocol.Confirm(ctx, "username", "ana")

		Expect(internal.IsType(err, internal.ErrorTypeConfirmationMismatch)).To(BeTrue())
	})

	Context("with a single attempt", func() {
		It("should abort on the first mismatch", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			protocol = confirm.NewProtocol(prompter, "cancel", 1, logger)
			prompter.answers = []string{"nope", "PC-1001"}

			err := protocol.Confirm(ctx, "tag", "PC-1001")

			Expect(errors.Is(err, internal.ErrConfirmationMismatch)).To(BeTrue())
			Expect(prompter.asked).To(Equal(1))
		})
	})
})
