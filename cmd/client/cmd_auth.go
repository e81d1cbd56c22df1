package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/session"
	"github.com/atinyakov/MineAdmin/internal/client/storage"
	"github.com/atinyakov/MineAdmin/internal/models"
)

const tagAuth = "auth"

func (c *cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			addr, password, err := storage.PromptCredentials(a.in, a.out, email)
			if err != nil {
				return fmt.Errorf("read credentials: %w", err)
			}

			a.errors.ClearByContext(tagAuth)
			if err := a.session.Login(cmd.Context(), addr, password); err != nil {
				// the backend message is more useful than the generic 401 text here
				a.errors.HandleAPIError(err, tagAuth, errstore.AddOptions{Message: err.Error()})
				return err
			}

			u := a.session.User()
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Signed in as %s (%s)", u.Name, session.Role(u))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account e-mail; prompted when empty")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if !a.api.HasSession() {
				fmt.Fprintln(a.out, mutedStyle.Render("Not signed in."))
				return nil
			}
			a.session.Logout(cmd.Context())
			fmt.Fprintln(a.out, successStyle.Render("Signed out."))
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			return printUser(a, a.session.User())
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var patch models.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your own name, e-mail, phone or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			if patch == (models.ProfileUpdate{}) {
				return errors.New("nothing to update")
			}
			u, err := errstore.WithErrorHandling(ctx, a.errors, "profile", func(ctx context.Context) (*models.User, error) {
				return a.session.UpdateProfile(ctx, patch)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render("Profile updated."))
			return printUser(a, u)
		},
	}
	cmd.Flags().StringVar(&patch.Name, "name", "", "display name")
	cmd.Flags().StringVar(&patch.Email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&patch.Phone, "phone", "", "contact number")
	cmd.Flags().StringVar(&patch.Password, "password", "", "new password")
	return cmd
}

func printUser(a *app, u *models.User) error {
	if u == nil {
		return session.ErrNoUser
	}
	return fields(a.out, "Current user",
		[2]string{"ID", u.ID},
		[2]string{"Name", u.Name},
		[2]string{"Email", u.Email},
		[2]string{"Role", string(session.Role(u))},
		[2]string{"Phone", orDash(u.Phone)},
		[2]string{"Branch", orDash(u.BranchID)},
	)
}
