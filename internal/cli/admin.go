package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Shivanand-hulikatti/club-events/internal/app"
	"github.com/Shivanand-hulikatti/club-events/internal/auth"
	"github.com/Shivanand-hulikatti/club-events/internal/database"
	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := database.Migrate(ctx, a.Pool); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newGrantAdminCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Give an existing member the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Users.SetRole(ctx, email, string(session.RoleAdmin)); err != nil {
					return fmt.Errorf("grant admin to %s: %w", email, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", email)
				return nil
			})
		},
	}
}

// credentials are the organizer sign-in flags shared by admin commands.
type credentials struct {
	email    string
	password string
}

func (c *credentials) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "organizer email")
	cmd.Flags().StringVar(&c.password, "password", "", "organizer password (or CLUBCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
}

func (c *credentials) signInRequest() model.SignInRequest {
	pw := c.password
	if pw == "" {
		pw = os.Getenv("CLUBCTL_PASSWORD")
	}
	return model.SignInRequest{Email: c.email, Password: pw}
}

// authProvider is the part of the auth service the CLI signs in through.
type authProvider interface {
	session.Notifier
	SignIn(ctx context.Context, req model.SignInRequest) (auth.SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
}

// signInAdmin signs in, lets the process session store pick up the new
// identity and asks the guard for admin access. A denied session is signed
// out again. The returned func ends the session.
func signInAdmin(
	ctx context.Context,
	authn authProvider,
	profiles session.ProfileSource,
	g *guard.Guard,
	logger *slog.Logger,
	req model.SignInRequest,
) (*session.Session, func(), error) {
	store := session.NewStore(profiles, logger)
	stop := store.Watch(authn)

	res, err := authn.SignIn(ctx, req)
	if err != nil {
		stop()
		return nil, nil, err
	}
	signOut := func() {
		if err := authn.SignOut(ctx, res.SessionID); err != nil {
			logger.WarnContext(ctx, "sign_out_failed", "error", err)
		}
		stop()
	}

	sess := store.Current()
	d := g.Authorize(sess, session.RoleAdmin)
	if !d.Allowed {
		signOut()
		return nil, nil, d.Err()
	}
	return sess, signOut, nil
}
