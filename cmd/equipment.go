package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

var equipmentCmd = &cobra.Command{
	Use:     "equipment",
	Aliases: []string{"eq"},
	Short:   "Register, assign and inspect equipment",
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Send units to maintenance and close it",
}

var vendorReturnCmd = &cobra.Command{
	Use:   "vendor-return",
	Short: "Return units to their vendor",
}

func init() {
	equipmentCmd.AddCommand(
		newRegisterCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newAssignCmd(command.Assign),
		newAssignCmd(command.Loan),
		newReturnCmd(),
		newResolutionCmd(command.Reactivate, "reactivate"),
		newShowCmd(),
		newListCmd(),
		newHistoryCmd(),
	)
	maintenanceCmd.AddCommand(
		newMaintenanceStartCmd(),
		newMaintenanceCompleteCmd(),
		newNotRepairableCmd(),
	)
	vendorReturnCmd.AddCommand(
		newVendorReturnStartCmd(),
		newResolutionCmd(command.VendorReturnConfirm, "confirm"),
		newResolutionCmd(command.VendorReturnReject, "reject"),
	)
}

func newRegisterCmd() *cobra.Command {
	var dto equipment.RegisterDTO
	cmd := &cobra.Command{
		Use:   "register",
		Short: command.Help(command.Register),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.Register, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.Register(ctx, session, dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, "Registered "+e.Tag)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dto.Tag, "tag", "", "asset tag, for example PC-1001")
	f.StringVar(&dto.Type, "type", "", "equipment type from the catalog")
	f.StringVar(&dto.Brand, "brand", "", "brand from the catalog")
	f.StringVar(&dto.Model, "model", "", "model name")
	f.StringVar(&dto.Serial, "serial", "", "manufacturer serial number")
	f.StringVar(&dto.Vendor, "vendor", "", "vendor from the catalog")
	f.StringVar(&dto.Observations, "observations", "", "free-text observations")
	for _, name := range []string{"tag", "type", "brand", "model", "serial"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newEditCmd() *cobra.Command {
	var dto equipment.EditDTO
	cmd := &cobra.Command{
		Use:   "edit TAG",
		Short: command.Help(command.Edit),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.Edit, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.Edit(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, "Updated "+e.Tag)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dto.Type, "type", "", "new equipment type")
	f.StringVar(&dto.Brand, "brand", "", "new brand")
	f.StringVar(&dto.Model, "model", "", "new model name")
	f.StringVar(&dto.Serial, "serial", "", "new serial number")
	f.StringVar(&dto.Reason, "reason", "", "why the record is being corrected")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var dto equipment.DeleteDTO
	cmd := &cobra.Command{
		Use:   "delete TAG",
		Short: command.Help(command.Delete),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.Delete, func(ctx context.Context, app *App, session *auth.Session) error {
				if err := app.Equipment.Delete(ctx, session, args[0], dto); err != nil {
					return err
				}
				done(cmd.OutOrStdout(), "Deleted %s", validation.NormalizeTag(args[0]))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dto.Reason, "reason", "", "why the unit is being deleted")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// newAssignCmd builds both assign and loan; loan also takes a due date.
func newAssignCmd(id command.ID) *cobra.Command {
	var (
		dto equipment.AssignDTO
		due string
	)
	use := "assign TAG"
	if id == command.Loan {
		use = "loan TAG"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: command.Help(id),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(id, func(ctx context.Context, app *App, session *auth.Session) error {
				var (
					e   *equipment.Equipment
					err error
				)
				if id == command.Loan {
					if dto.DueDate, err = parseOptionalDate(due); err != nil {
						return err
					}
					e, err = app.Equipment.Loan(ctx, session, args[0], dto)
				} else {
					e, err = app.Equipment.Assign(ctx, session, args[0], dto)
				}
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, fmt.Sprintf("%s is now %s", e.Tag, e.Status))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dto.Name, "name", "", "full name of the person receiving the unit")
	f.StringVar(&dto.Email, "email", "", "email of the person receiving the unit")
	f.StringVar(&dto.Observations, "observations", "", "hand-over notes")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	if id == command.Loan {
		f.StringVar(&due, "due", "", "loan due date (DD/MM/YYYY)")
		_ = cmd.MarkFlagRequired("due")
	}
	return cmd
}

func newReturnCmd() *cobra.Command {
	var dto equipment.ReturnDTO
	cmd := &cobra.Command{
		Use:   "return TAG",
		Short: command.Help(command.Return),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.Return, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.ReturnToInventory(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, e.Tag+" returned to inventory")
			})
		},
	}
	cmd.Flags().StringVar(&dto.Reason, "reason", "", "why the unit is coming back")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// newResolutionCmd builds the commands that only take observations:
// vendor-return confirm and reject, and equipment reactivate.
func newResolutionCmd(id command.ID, use string) *cobra.Command {
	var dto equipment.ResolutionDTO
	cmd := &cobra.Command{
		Use:   use + " TAG",
		Short: command.Help(id),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(id, func(ctx context.Context, app *App, session *auth.Session) error {
				var (
					e   *equipment.Equipment
					err error
				)
				switch id {
				case command.VendorReturnConfirm:
					e, err = app.Equipment.ConfirmVendorReturn(ctx, session, args[0], dto)
				case command.VendorReturnReject:
					e, err = app.Equipment.RejectVendorReturn(ctx, session, args[0], dto)
				default:
					e, err = app.Equipment.Reactivate(ctx, session, args[0], dto)
				}
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, fmt.Sprintf("%s is now %s", e.Tag, e.Status))
			})
		},
	}
	cmd.Flags().StringVar(&dto.Observations, "observations", "", "resolution notes")
	_ = cmd.MarkFlagRequired("observations")
	return cmd
}

func newMaintenanceStartCmd() *cobra.Command {
	var dto equipment.MaintenanceDTO
	cmd := &cobra.Command{
		Use:   "start TAG",
		Short: command.Help(command.MaintenanceStart),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.MaintenanceStart, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.StartMaintenance(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, e.Tag+" sent to maintenance")
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dto.Kind, "kind", equipment.MaintenanceCorrective, "maintenance kind: "+strings.Join(equipment.MaintenanceKinds(), ", "))
	f.StringVar(&dto.Observations, "observations", "", "what is being done")
	_ = cmd.MarkFlagRequired("observations")
	return cmd
}

func newMaintenanceCompleteCmd() *cobra.Command {
	var dto equipment.CompleteMaintenanceDTO
	cmd := &cobra.Command{
		Use:   "complete TAG",
		Short: command.Help(command.MaintenanceComplete),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.MaintenanceComplete, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.CompleteMaintenance(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, fmt.Sprintf("%s is back to %s", e.Tag, e.Status))
			})
		},
	}
	cmd.Flags().StringVar(&dto.Observations, "observations", "", "work performed")
	_ = cmd.MarkFlagRequired("observations")
	return cmd
}

// vendorReturnFlags binds the flags shared by vendor-return start and
// maintenance not-repairable.
func vendorReturnFlags(cmd *cobra.Command, dto *equipment.VendorReturnDTO, date *string) {
	f := cmd.Flags()
	f.StringVar(&dto.Reason, "reason", "", "return reason: "+strings.Join(equipment.VendorReturnReasons(), ", "))
	f.StringVar(date, "date", "", "date the unit leaves (DD/MM/YYYY, default today)")
	f.StringVar(&dto.Justification, "justification", "", "required when the date is in the past")
	f.StringVar(&dto.Observations, "observations", "", "return notes")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("observations")
}

func newVendorReturnStartCmd() *cobra.Command {
	var (
		dto  equipment.VendorReturnDTO
		date string
	)
	cmd := &cobra.Command{
		Use:   "start TAG",
		Short: command.Help(command.VendorReturnStart),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.VendorReturnStart, func(ctx context.Context, app *App, session *auth.Session) error {
				var err error
				if dto.Date, err = dateOrToday(date); err != nil {
					return err
				}
				e, err := app.Equipment.StartVendorReturn(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, e.Tag+" pending vendor return")
			})
		},
	}
	vendorReturnFlags(cmd, &dto, &date)
	return cmd
}

func newNotRepairableCmd() *cobra.Command {
	var (
		dto  equipment.NotRepairableDTO
		date string
	)
	cmd := &cobra.Command{
		Use:   "not-repairable TAG",
		Short: command.Help(command.NotRepairable),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.NotRepairable, func(ctx context.Context, app *App, session *auth.Session) error {
				var err error
				if dto.Date, err = dateOrToday(date); err != nil {
					return err
				}
				e, err := app.Equipment.MarkNotRepairable(ctx, session, args[0], dto)
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, e.Tag+" pending vendor return")
			})
		},
	}
	cmd.Flags().StringVar(&dto.RetireNote, "retire-note", "", "note for the holder when the unit was assigned or on loan")
	vendorReturnFlags(cmd, &dto.VendorReturnDTO, &date)
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TAG",
		Short: command.Help(command.Show),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.Show, func(ctx context.Context, app *App, session *auth.Session) error {
				e, err := app.Equipment.Get(ctx, session, args[0])
				if err != nil {
					return err
				}
				return printEquipment(cmd.OutOrStdout(), e, "")
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		filter   equipment.ListFilter
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: command.Help(command.List),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.List, func(ctx context.Context, app *App, session *auth.Session) error {
				for _, s := range statuses {
					st, err := equipment.ParseStatus(s)
					if err != nil {
						return err
					}
					filter.Statuses = append(filter.Statuses, st)
				}

				items, err := app.Equipment.List(ctx, session, filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ok, err := emitJSON(out, items); ok {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("No equipment matches."))
					return nil
				}

				w := newTable(out, "Tag", "Type", "Brand", "Model", "Status", "Holder", "Updated")
				for _, e := range items {
					row(w, e.Tag, e.Type, e.Brand, e.Model, string(e.Status), orDash(e.AssignedName), formatTime(e.UpdatedAt))
				}
				return w.Flush()
			})
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&statuses, "status", nil, "only these statuses (repeatable)")
	f.StringVar(&filter.Type, "type", "", "only this equipment type")
	f.StringVar(&filter.Search, "search", "", "match tag, model, serial or holder")
	f.IntVar(&filter.Limit, "limit", 0, "maximum rows")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history TAG",
		Short: command.Help(command.History),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.History, func(ctx context.Context, app *App, session *auth.Session) error {
				moves, err := app.Equipment.History(ctx, session, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ok, err := emitJSON(out, moves); ok {
					return err
				}
				w := newTable(out, "When", "Action", "Actor", "Detail")
				for _, m := range moves {
					row(w, formatTime(m.CreatedAt), m.Action, m.Actor, orDash(m.Detail))
				}
				return w.Flush()
			})
		},
	}
}

func printEquipment(out io.Writer, e *equipment.Equipment, message string) error {
	if ok, err := emitJSON(out, e); ok {
		return err
	}
	if message != "" {
		done(out, "%s", message)
	}

	w := newTable(out, "Field", "Value")
	row(w, "Tag", e.Tag)
	row(w, "Type", e.Type)
	row(w, "Brand", e.Brand)
	row(w, "Model", e.Model)
	row(w, "Serial", e.Serial)
	row(w, "Vendor", orDash(e.Vendor))
	row(w, "Status", string(e.Status))
	if e.AssignedName != "" {
		row(w, "Holder", fmt.Sprintf("%s <%s>", e.AssignedName, e.AssignedEmail))
	}
	if e.LoanDueDate != nil {
		row(w, "Loan due", formatDate(e.LoanDueDate))
	}
	if e.VendorReturnDate != nil {
		row(w, "Vendor return", fmt.Sprintf("%s (%s)", formatDate(e.VendorReturnDate), e.VendorReturnReason))
	}
	if e.RenewalLinkedTag != "" {
		row(w, "Renewal with", e.RenewalLinkedTag)
		row(w, "Renewal due", formatDate(e.RenewalDueDate))
	}
	row(w, "Observations", orDash(e.Observations))
	row(w, "Registered", formatTime(e.RegisteredAt))
	return w.Flush()
}

func dateOrToday(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return validation.Day(time.Now()), nil
	}
	return validation.ParseDate(value)
}
