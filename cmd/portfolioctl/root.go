package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfolio/portfolio-api/internal/client/api"
	"github.com/pfolio/portfolio-api/internal/client/session"
)

// options are the flags shared by the session commands.
type options struct {
	server   string
	stateDir string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "portfolioctl",
		Short:        "Administer the portfolio API",
		SilenceUsage: true,
	}

	server := os.Getenv("PORTFOLIO_API_URL")
	if server == "" {
		server = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "base URL of the portfolio API")
	cmd.PersistentFlags().StringVar(&opts.stateDir, "state-dir", "", "directory holding the saved session (default: user config dir)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	cmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newPurgeRevokedCmd(),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newPasswdCmd(opts),
	)
	return cmd
}

// manager builds a session manager backed by the on-disk token store.
func (o *options) manager(cmd *cobra.Command) (*session.Manager, error) {
	dir := o.stateDir
	if dir == "" {
		d, err := session.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("locate state dir: %w", err)
		}
		dir = d
	}
	client := api.New(o.server, &http.Client{Timeout: o.timeout})
	return session.NewManager(client, session.NewFileTokenStore(dir), printer(cmd.ErrOrStderr())), nil
}

// printer shows session notifications on w, one per line.
func printer(w io.Writer) session.Notifier {
	return session.NotifierFunc(func(n session.Notification) {
		prefix := ""
		if n.Destructive {
			prefix = "error: "
		}
		if n.Description == "" {
			fmt.Fprintf(w, "%s%s\n", prefix, n.Title)
			return
		}
		fmt.Fprintf(w, "%s%s: %s\n", prefix, n.Title, n.Description)
	})
}
