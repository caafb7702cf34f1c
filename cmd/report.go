package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export Excel workbooks",
}

func init() {
	reportCmd.AddCommand(
		newReportInventoryCmd(),
		newReportVendorReturnsCmd(),
		newReportMovementsCmd(),
		newReportHistoryCmd(),
	)
}

type reportResponse struct {
	Path string `json:"path"`
}

func reportWritten(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	if ok, err := emitJSON(out, reportResponse{Path: path}); ok {
		return err
	}
	done(out, "Report written to %s", path)
	return nil
}

func newReportInventoryCmd() *cobra.Command {
	var (
		filter   report.InventoryFilter
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: command.Help(command.ReportInventory),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.ReportInventory, func(ctx context.Context, app *App, session *auth.Session) error {
				for _, s := range statuses {
					st, err := equipment.ParseStatus(s)
					if err != nil {
						return err
					}
					filter.Statuses = append(filter.Statuses, st)
				}
				path, err := app.Reports.Inventory(ctx, session, filter)
				if err != nil {
					return err
				}
				return reportWritten(cmd, path)
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses (repeatable)")
	cmd.Flags().StringVar(&filter.Type, "type", "", "only this equipment type")
	return cmd
}

func newReportVendorReturnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vendor-returns",
		Short: command.Help(command.ReportVendorReturns),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.ReportVendorReturns, func(ctx context.Context, app *App, session *auth.Session) error {
				path, err := app.Reports.VendorReturned(ctx, session)
				if err != nil {
					return err
				}
				return reportWritten(cmd, path)
			})
		},
	}
}

func newReportMovementsCmd() *cobra.Command {
	var (
		filter   report.MovementFilter
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "movements",
		Short: command.Help(command.ReportMovements),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.ReportMovements, func(ctx context.Context, app *App, session *auth.Session) error {
				var err error
				if filter.From, err = parseOptionalDate(from); err != nil {
					return err
				}
				if filter.To, err = parseOptionalDate(to); err != nil {
					return err
				}
				if filter.To != nil {
					// Inclusive of the whole last day.
					end := filter.To.AddDate(0, 0, 1).Add(-1)
					filter.To = &end
				}
				path, err := app.Reports.MovementLog(ctx, session, filter)
				if err != nil {
					return err
				}
				return reportWritten(cmd, path)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.Tag, "tag", "", "only this unit")
	f.StringVar(&from, "from", "", "first day (DD/MM/YYYY)")
	f.StringVar(&to, "to", "", "last day (DD/MM/YYYY)")
	return cmd
}

func newReportHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history TAG",
		Short: command.Help(command.ReportHistory),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.ReportHistory, func(ctx context.Context, app *App, session *auth.Session) error {
				path, err := app.Reports.History(ctx, session, args[0])
				if err != nil {
					return err
				}
				return reportWritten(cmd, path)
			})
		},
	}
}
