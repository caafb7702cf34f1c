package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
)

var systemLogLimit int

var systemLogCmd = &cobra.Command{
	Use:   "system-log",
	Short: command.Help(command.SystemLog),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.SystemLog, func(ctx context.Context, app *App, _ *auth.Session) error {
			entries, err := app.Audit.Recent(ctx, systemLogLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := emitJSON(out, entries); ok {
				return err
			}
			w := newTable(out, "When", "Actor", "Action", "Detail")
			for _, e := range entries {
				row(w, formatTime(e.CreatedAt), e.Actor, e.Action, orDash(e.Detail))
			}
			return w.Flush()
		})
	},
}

func init() {
	systemLogCmd.Flags().IntVar(&systemLogLimit, "limit", 50, "number of entries")
}
