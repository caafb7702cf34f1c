package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/user"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

func init() {
	userCmd.AddCommand(
		newUserCreateCmd(),
		newUserListCmd(),
		newUserResetPasswordCmd(),
		newUserActiveCmd(command.UserActivate, "activate", true),
		newUserActiveCmd(command.UserDeactivate, "deactivate", false),
		newUserRoleCmd(),
	)
}

type credentialsResponse struct {
	Username          string `json:"username"`
	TemporaryPassword string `json:"temporary_password"`
}

// printTemporaryPassword shows a one-time password exactly once.
func printTemporaryPassword(out io.Writer, username, temp string) error {
	if ok, err := emitJSON(out, credentialsResponse{Username: username, TemporaryPassword: temp}); ok {
		return err
	}
	fmt.Fprintf(out, "Temporary password for %s: %s\n", username, headingStyle.Render(temp))
	fmt.Fprintln(out, mutedStyle.Render("It must be changed at first login."))
	return nil
}

func newUserCreateCmd() *cobra.Command {
	var dto user.CreateDTO
	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: command.Help(command.UserCreate),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.UserCreate, func(ctx context.Context, app *App, session *auth.Session) error {
				dto.Username = args[0]
				u, temp, err := app.Users.Create(ctx, session, dto)
				if err != nil {
					return err
				}
				return printTemporaryPassword(cmd.OutOrStdout(), u.Username, temp)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dto.FullName, "full-name", "", "first and last name")
	f.StringVar(&dto.Email, "email", "", "email address")
	f.StringVar(&dto.Role, "role", auth.RoleViewer, "Administrator, Manager or Viewer")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: command.Help(command.UserList),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(command.UserList, func(ctx context.Context, app *App, session *auth.Session) error {
				users, err := app.Users.List(ctx, session)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ok, err := emitJSON(out, users); ok {
					return err
				}
				w := newTable(out, "Username", "Name", "Email", "Role", "Active", "Last login")
				for _, u := range users {
					active := "yes"
					if !u.IsActive {
						active = "no"
					}
					row(w, u.Username, u.FullName, u.Email, u.Role, active, formatDate(u.LastLoginAt))
				}
				return w.Flush()
			})
		},
	}
}

func newUserResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password USERNAME",
		Short: command.Help(command.UserResetPassword),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.UserResetPassword, func(ctx context.Context, app *App, session *auth.Session) error {
				temp, err := app.Users.ResetPassword(ctx, session, args[0])
				if err != nil {
					return err
				}
				return printTemporaryPassword(cmd.OutOrStdout(), args[0], temp)
			})
		},
	}
}

func newUserActiveCmd(id command.ID, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: command.Help(id),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(id, func(ctx context.Context, app *App, session *auth.Session) error {
				u, err := app.Users.SetActive(ctx, session, args[0], active)
				if err != nil {
					return err
				}
				return printUser(cmd.OutOrStdout(), u)
			})
		},
	}
}

func newUserRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role USERNAME ROLE",
		Short: command.Help(command.UserRole),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(command.UserRole, func(ctx context.Context, app *App, session *auth.Session) error {
				u, err := app.Users.ChangeRole(ctx, session, args[0], args[1])
				if err != nil {
					return err
				}
				return printUser(cmd.OutOrStdout(), u)
			})
		},
	}
}

func printUser(out io.Writer, u *user.User) error {
	if ok, err := emitJSON(out, u); ok {
		return err
	}
	state := "active"
	if !u.IsActive {
		state = "inactive"
	}
	done(out, "%s is %s with role %s", u.Username, state, u.Role)
	return nil
}
