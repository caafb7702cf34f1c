package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/renewal"
)

var renewalCmd = &cobra.Command{
	Use:   "renewal",
	Short: "Replace an assigned unit with a new one",
}

func init() {
	renewalCmd.AddCommand(
		newRenewalStartCmd(),
		newRenewalApproveCmd(),
		newRenewalRejectCmd(),
		newRenewalListCmd(),
	)
}

func newRenewalStartCmd() *cobra.Command {
	var (
		dto renewal.StartDTO
		due string
	)
	cmd := &cobra.Command{
		Use:   "start OLD_TAG NEW_TAG",
		Short: command.Help(command.RenewalStart),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.RenewalStart, func(ctx context.Context, app *App, session *auth.Session) error {
				dto.OldTag, dto.NewTag = args[0], args[1]
				var err error
				if dto.DueDate, err = validation.ParseDate(due); err != nil {
					return err
				}
				pair, err := app.Renewal.Start(ctx, session, dto)
				if errors.Is(err, internal.ErrRenewalStockUsed) {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Rerun with --override --justification \"...\" to use this unit anyway."))
				}
				if err != nil {
					return err
				}
				return printPair(cmd.OutOrStdout(), pair, "Renewal opened")
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&due, "due", "", "date the old unit goes back to the vendor (DD/MM/YYYY)")
	f.StringVar(&dto.Observations, "observations", "", "renewal notes")
	f.BoolVar(&dto.Override, "override", false, "accept a replacement that already has history")
	f.StringVar(&dto.Justification, "justification", "", "required with --override")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func newRenewalApproveCmd() *cobra.Command {
	var (
		dto        renewal.ApproveDTO
		vendorDate string
	)
	cmd := &cobra.Command{
		Use:   "approve OLD_TAG",
		Short: command.Help(command.RenewalApprove),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.RenewalApprove, func(ctx context.Context, app *App, session *auth.Session) error {
				var err error
				if dto.VendorDate, err = parseOptionalDate(vendorDate); err != nil {
					return err
				}
				pair, err := app.Renewal.Approve(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printPair(cmd.OutOrStdout(), pair, "Renewal approved")
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&vendorDate, "vendor-date", "", "override the vendor return date (DD/MM/YYYY)")
	f.StringVar(&dto.Observations, "observations", "", "approval notes")
	return cmd
}

func newRenewalRejectCmd() *cobra.Command {
	var dto renewal.RejectDTO
	cmd := &cobra.Command{
		Use:   "reject OLD_TAG",
		Short: command.Help(command.RenewalReject),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.RenewalReject, func(ctx context.Context, app *App, session *auth.Session) error {
				pair, err := app.Renewal.Reject(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printPair(cmd.OutOrStdout(), pair, "Renewal rejected")
			})
		},
	}
	cmd.Flags().StringVar(&dto.Reason, "reason", "", "why the renewal is cancelled")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newRenewalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: command.Help(command.RenewalList),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.RenewalList, func(ctx context.Context, app *App, session *auth.Session) error {
				pairs, err := app.Renewal.ListOpen(ctx, session)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ok, err := emitJSON(out, pairs); ok {
					return err
				}
				if len(pairs) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("No open renewals."))
					return nil
				}
				w := newTable(out, "Old", "New", "Holder", "Due")
				for _, p := range pairs {
					newTag := "-"
					if p.New != nil {
						newTag = p.New.Tag
					}
					row(w, p.Old.Tag, newTag, orDash(p.Old.AssignedName), formatDate(p.Old.RenewalDueDate))
				}
				return w.Flush()
			})
		},
	}
}

func printPair(out io.Writer, pair *renewal.Pair, message string) error {
	if ok, err := emitJSON(out, pair); ok {
		return err
	}
	done(out, "%s", message)
	w := newTable(out, "Unit", "Tag", "Status", "Holder")
	row(w, "old", pair.Old.Tag, string(pair.Old.Status), orDash(pair.Old.AssignedName))
	row(w, "new", pair.New.Tag, string(pair.New.Status), orDash(pair.New.AssignedName))
	return w.Flush()
}
