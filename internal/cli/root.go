// Package cli implements clubctl, the organizer command line.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/Shivanand-hulikatti/club-events/internal/app"
	"github.com/Shivanand-hulikatti/club-events/internal/config"
	"github.com/Shivanand-hulikatti/club-events/internal/logging"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

// NewRootCmd builds the clubctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "clubctl",
		Short: "Organizer tools for the club events service",
		Long: `clubctl runs maintenance and organizer tasks against the club events database.

Examples:
  # Create or update the schema
  clubctl migrate

  # Give a member organizer rights
  clubctl grant-admin chair@club.edu

  # List upcoming talks, newest first
  clubctl events list --q talk --sort date-desc
`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logging.New(cfg.Log.Level, "text", os.Stderr)
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(
		newMigrateCmd(opts),
		newGrantAdminCmd(opts),
		newEventsCmd(opts),
		newParticipantsCmd(opts),
	)
	return root
}

// ExecuteContext runs clubctl with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// withApp builds the service graph for one command run.
func (o *options) withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.New(ctx, o.cfg, o.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
