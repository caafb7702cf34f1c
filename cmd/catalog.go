package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	"github.com/frahmantamala/equipment-inventory/internal/command"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the reference values offered at registration and assignment",
}

func init() {
	catalogCmd.AddCommand(
		newCatalogListCmd(),
		newCatalogAddCmd(),
		newCatalogToggleCmd(command.CatalogActivate, "activate"),
		newCatalogToggleCmd(command.CatalogDeactivate, "deactivate"),
		newCatalogToggleCmd(command.CatalogDelete, "delete"),
	)
}

var kindsHelp = strings.Join(catalog.Kinds(), ", ")

func newCatalogListCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: command.Help(command.CatalogList),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.CatalogList, func(ctx context.Context, app *App, session *auth.Session) error {
				params, err := app.Catalog.List(ctx, session, kind)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ok, err := emitJSON(out, catalog.ParametersResponse{Kind: kind, Parameters: params}); ok {
					return err
				}
				w := newTable(out, "ID", "Kind", "Value", "Active")
				for _, p := range params {
					active := "yes"
					if !p.IsActive {
						active = "no"
					}
					row(w, strconv.FormatInt(p.ID, 10), p.Kind, p.Value, active)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only this kind: "+kindsHelp)
	return cmd
}

func newCatalogAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add KIND VALUE",
		Short: command.Help(command.CatalogAdd),
		Long:  "Add a catalog value. KIND is one of " + kindsHelp + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.CatalogAdd, func(ctx context.Context, app *App, session *auth.Session) error {
				p, err := app.Catalog.Add(ctx, session, catalog.AddDTO{Kind: args[0], Value: args[1]})
				if err != nil {
					return err
				}
				return printParameter(cmd, p, "Added")
			})
		},
	}
}

func newCatalogToggleCmd(id command.ID, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: command.Help(id),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paramID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return internal.NewValidationFieldError("id", fmt.Sprintf("%q is not a catalog id", args[0]), internal.ErrCodeValidationFailed)
			}
			return run(id, func(ctx context.Context, app *App, session *auth.Session) error {
				switch id {
				case command.CatalogDelete:
					if err := app.Catalog.Delete(ctx, session, paramID); err != nil {
						return err
					}
					done(cmd.OutOrStdout(), "Deleted catalog value %d", paramID)
					return nil
				case command.CatalogActivate:
					p, err := app.Catalog.Activate(ctx, session, paramID)
					if err != nil {
						return err
					}
					return printParameter(cmd, p, "Activated")
				default:
					p, err := app.Catalog.Deactivate(ctx, session, paramID)
					if err != nil {
						return err
					}
					return printParameter(cmd, p, "Deactivated")
				}
			})
		},
	}
}

func printParameter(cmd *cobra.Command, p *catalog.Parameter, verb string) error {
	out := cmd.OutOrStdout()
	if ok, err := emitJSON(out, p); ok {
		return err
	}
	done(out, "%s %s %q (id %d)", verb, p.Kind, p.Value, p.ID)
	return nil
}
