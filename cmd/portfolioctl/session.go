package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfolio/portfolio-api/internal/client/session"
)

var errAccessDenied = errors.New("access denied")

func newLoginCmd(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			out := cmd.ErrOrStderr()
			if email == "" {
				email, err = promptLine(bufio.NewReader(cmd.InOrStdin()), out, "Email")
				if err != nil {
					return err
				}
			}
			password, err := promptSecret(out, "Password")
			if err != nil {
				return err
			}
			return m.SignIn(cmd.Context(), email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and revoke the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			// A failed restore still lets the local token be cleared.
			_ = m.Restore(cmd.Context())
			return m.SignOut(cmd.Context())
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			if err := m.Restore(cmd.Context()); err != nil {
				return err
			}
			s := m.Snapshot()
			if s.State != session.Authenticated {
				return session.ErrNotAuthenticated
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.Identity.Email, s.Identity.Role)
			return nil
		},
	}
}

func newPasswdCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			if err := requireAdmin(cmd.Context(), m); err != nil {
				return err
			}
			out := cmd.ErrOrStderr()
			current, err := promptSecret(out, "Current password")
			if err != nil {
				return err
			}
			next, err := promptSecret(out, "New password")
			if err != nil {
				return err
			}
			confirm, err := promptSecret(out, "Confirm new password")
			if err != nil {
				return err
			}
			return m.ChangePassword(cmd.Context(), current, next, confirm)
		},
	}
}

// requireAdmin restores the saved session and applies the admin guard.
func requireAdmin(ctx context.Context, m *session.Manager) error {
	if err := m.Restore(ctx); err != nil {
		return err
	}
	d := session.AdminGuard().Enforce(m)
	switch {
	case d.Allow:
		return nil
	case d.Redirect == session.AdminGuard().LoginPath:
		return fmt.Errorf("%w: run `portfolioctl login` first", session.ErrNotAuthenticated)
	default:
		return errAccessDenied
	}
}
