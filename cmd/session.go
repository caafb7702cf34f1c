package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/user"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: command.Help(command.Login),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.Login, func(ctx context.Context, app *App, _ *auth.Session) error {
			session, err := login(ctx, app)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			done(out, "Welcome, %s (%s)", session.FullName, session.Role)

			if session.ForcePasswordChange {
				fmt.Fprintln(out, "Your password must be changed before continuing.")
				if err := changePassword(ctx, app, session); err != nil {
					return err
				}
				done(out, "Password changed")
			}
			return nil
		})
	},
}

// login prompts for credentials until they verify or the configured
// number of attempts is spent.
func login(ctx context.Context, app *App) (*auth.Session, error) {
	username := loginUsername
	if username == "" {
		var err error
		if username, err = app.Prompter.PromptDefault(ctx, "Username", ""); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= app.Config.Security.LoginAttempts; attempt++ {
		password, err := app.Prompter.Secret(ctx, "Password: ")
		if err != nil {
			return nil, err
		}

		session, err := app.Auth.Login(ctx, auth.LoginDTO{Username: username, Password: password})
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, internal.ErrInvalidCredentials) {
			return nil, err
		}
		lastErr = err
		if attempt < app.Config.Security.LoginAttempts {
			fmt.Fprintf(app.Prompter.out, "%s (%d of %d)\n", err.Error(), attempt, app.Config.Security.LoginAttempts)
		}
	}
	return nil, lastErr
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: command.Help(command.Logout),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.Logout, func(ctx context.Context, app *App, _ *auth.Session) error {
			// An expired or missing session still gets its file cleared.
			session, _ := app.Auth.Resume(ctx)
			if err := app.Auth.Logout(ctx, session); err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

type whoamiResponse struct {
	Username     string            `json:"username"`
	FullName     string            `json:"full_name"`
	Role         string            `json:"role"`
	ExpiresAt    string            `json:"expires_at"`
	Capabilities []auth.Capability `json:"capabilities"`
	Commands     []string          `json:"commands"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: command.Help(command.WhoAmI),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.WhoAmI, func(ctx context.Context, app *App, session *auth.Session) error {
			resp := whoamiResponse{
				Username:     session.Username,
				FullName:     session.FullName,
				Role:         session.Role,
				ExpiresAt:    formatTime(session.ExpiresAt),
				Capabilities: session.Capabilities,
			}
			for _, e := range command.Available(session) {
				resp.Commands = append(resp.Commands, e.Name)
			}

			out := cmd.OutOrStdout()
			if ok, err := emitJSON(out, resp); ok {
				return err
			}

			fmt.Fprintf(out, "%s (%s)\n", headingStyle.Render(resp.FullName), resp.Username)
			fmt.Fprintf(out, "Role:    %s\n", resp.Role)
			fmt.Fprintf(out, "Expires: %s\n", resp.ExpiresAt)
			if session.ForcePasswordChange {
				fmt.Fprintln(out, warnStyle.Render("Password change required: run passwd"))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, headingStyle.Render("Available commands"))
			for _, e := range command.Available(session) {
				fmt.Fprintf(out, "  %-28s %s\n", e.Name, mutedStyle.Render(e.Help))
			}
			return nil
		})
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: command.Help(command.ChangePassword),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(command.ChangePassword, func(ctx context.Context, app *App, session *auth.Session) error {
			if err := changePassword(ctx, app, session); err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Password changed")
			return nil
		})
	},
}

func changePassword(ctx context.Context, app *App, session *auth.Session) error {
	current, err := app.Prompter.Secret(ctx, "Current password: ")
	if err != nil {
		return err
	}
	next, err := app.Prompter.Secret(ctx, "New password: ")
	if err != nil {
		return err
	}
	again, err := app.Prompter.Secret(ctx, "Repeat new password: ")
	if err != nil {
		return err
	}
	if next != again {
		return internal.NewValidationFieldError("new", "passwords do not match", internal.ErrCodeWeakPassword)
	}
	return app.Users.ChangePassword(ctx, session, user.ChangePasswordDTO{Current: current, New: next})
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username to log in as")
}
