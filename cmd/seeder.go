package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	"github.com/frahmantamala/equipment-inventory/internal/user"
)

var (
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed roles, catalog values and the first administrator",
		Long: `Seed the role matrix and the default catalog values. When no account
exists yet an administrator is created and its temporary password printed once.`,
		RunE: runSeed,
	}
	seedAdmin user.CreateDTO
)

func init() {
	seedCmd.Flags().StringVar(&seedAdmin.Username, "username", "admin", "username of the first administrator")
	seedCmd.Flags().StringVar(&seedAdmin.FullName, "full-name", "System Administrator", "full name of the first administrator")
	seedCmd.Flags().StringVar(&seedAdmin.Email, "email", "admin@local.host", "email of the first administrator")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if err := app.AuthRepo.SeedMatrix(ctx, auth.DefaultMatrix()); err != nil {
		return fmt.Errorf("failed to seed role matrix: %w", err)
	}
	fmt.Fprintln(out, "Seeded role matrix")

	added, err := app.Catalog.SeedDefaults(ctx, catalog.DefaultValues())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d catalog values\n", added)

	dto := seedAdmin
	dto.Role = auth.RoleAdministrator
	admin, temp, created, err := app.Users.Bootstrap(ctx, dto)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintln(out, "Accounts already exist; administrator not created")
		return nil
	}

	fmt.Fprintf(out, "Created administrator %s\n", admin.Username)
	fmt.Fprintf(out, "Temporary password: %s\n", temp)
	fmt.Fprintln(out, "It must be changed at first login.")
	return nil
}
