package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/pending"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: command.Help(command.Pending),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.Pending, func(ctx context.Context, app *App, session *auth.Session) error {
			queues, err := app.Pending.Queues(ctx, session)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := emitJSON(out, queues); ok {
				return err
			}
			printQueues(out, queues)
			return nil
		})
	},
}

var dashboardRecent int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: command.Help(command.Dashboard),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.Dashboard, func(ctx context.Context, app *App, session *auth.Session) error {
			summary, err := app.Pending.Summary(ctx, session, dashboardRecent)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := emitJSON(out, summary); ok {
				return err
			}

			fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Inventory (%d active units)", summary.ActiveTotal)))
			w := newTable(out, "Status", "Units")
			for _, st := range equipment.Statuses() {
				row(w, string(st), fmt.Sprint(summary.ByStatus[st]))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			printQueues(out, summary.Pending.Queues())

			if len(summary.Recent) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, headingStyle.Render("Recent activity"))
				w := newTable(out, "When", "Tag", "Action", "Actor")
				for _, m := range summary.Recent {
					row(w, formatTime(m.CreatedAt), m.EquipmentTag, m.Action, m.Actor)
				}
				return w.Flush()
			}
			return nil
		})
	},
}

// printQueues renders one coloured card per work queue.
func printQueues(out io.Writer, queues []pending.Queue) {
	cards := make([]string, 0, len(queues))
	for _, q := range queues {
		style := severityStyles[q.Severity]
		body := fmt.Sprintf("%s\n%s\n%s",
			q.Name,
			style.Render(fmt.Sprint(q.Count)),
			mutedStyle.Render(string(q.Severity)))
		cards = append(cards, cardStyle.BorderForeground(style.GetForeground()).Render(body))
	}
	fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
}

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2).
	Width(30).
	Align(lipgloss.Center)

func init() {
	dashboardCmd.Flags().IntVar(&dashboardRecent, "recent", 10, "number of recent movements to show")
}
