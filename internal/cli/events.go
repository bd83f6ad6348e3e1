package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Shivanand-hulikatti/club-events/internal/app"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/search"
	"github.com/Shivanand-hulikatti/club-events/internal/service"
	"github.com/spf13/cobra"
)

func newEventsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List or delete events",
	}
	cmd.AddCommand(newEventsListCmd(opts), newEventsDeleteCmd(opts))
	return cmd
}

func newEventsListCmd(opts *options) *cobra.Command {
	var term, sortKey, from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events with participant counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := service.Query{Term: term, PerPage: search.MaxPerPage}
			if sortKey != "" {
				key, ok := search.ParseSortKey(sortKey)
				if !ok {
					return fmt.Errorf("unknown sort key %q", sortKey)
				}
				q.Sort = key
			}
			var err error
			if q.From, err = optionalDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if q.To, err = optionalDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var events []model.Event
				for q.Page = 1; ; q.Page++ {
					page, err := a.Events.Browse(ctx, q)
					if err != nil {
						return err
					}
					events = append(events, page.Events...)
					if q.Page >= page.PageInfo.TotalPages {
						break
					}
				}
				return printEvents(cmd.OutOrStdout(), events)
			})
		},
	}
	cmd.Flags().StringVar(&term, "q", "", "search title, description and location")
	cmd.Flags().StringVar(&sortKey, "sort", "", "date-asc | date-desc | title-asc | title-desc")
	cmd.Flags().StringVar(&from, "from", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest date (YYYY-MM-DD)")
	return cmd
}

func optionalDate(s string) (model.Date, error) {
	if s == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(s)
}

func newEventsDeleteCmd(opts *options) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event and all of its registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, signOut, err := signInAdmin(ctx, a.Auth, a.Users, a.Guard, opts.logger, creds.signInRequest())
				if err != nil {
					return err
				}
				defer signOut()

				if err := a.Events.DeleteEvent(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted event %s\n", args[0])
				return nil
			})
		},
	}
	creds.register(cmd)
	return cmd
}

func newParticipantsCmd(opts *options) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "participants <event-id>",
		Short: "Show who registered for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, signOut, err := signInAdmin(ctx, a.Auth, a.Users, a.Guard, opts.logger, creds.signInRequest())
				if err != nil {
					return err
				}
				defer signOut()

				ps, err := a.Events.Participants(ctx, args[0])
				if err != nil {
					return err
				}
				return printParticipants(cmd.OutOrStdout(), ps)
			})
		},
	}
	creds.register(cmd)
	return cmd
}

func printEvents(out io.Writer, events []model.Event) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tLOCATION\tPARTICIPANTS")
	for _, e := range events {
		n := 0
		if e.Participants != nil {
			n = *e.Participants
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", e.ID, e.Date, e.Title, e.Location, n)
	}
	return w.Flush()
}

func printParticipants(out io.Writer, ps []model.Participant) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tREGISTERED")
	for _, p := range ps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Email, p.RegisteredAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d participant(s)\n", len(ps))
	return err
}
