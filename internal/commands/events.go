package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/usercycle/internal/errors"
	"github.com/otherjamesbrown/usercycle/usercycle"
)

// EventsCommand creates the events command group for reading stored events.
func EventsCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read stored events",
	}

	cmd.AddCommand(eventsListCommand(g))
	cmd.AddCommand(eventsGetCommand(g))

	return cmd
}

func eventsListCommand(g *globalFlags) *cobra.Command {
	var q usercycle.EventQuery
	var flagSince string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagSince != "" {
				since, err := usercycle.ParseTimestamp(flagSince)
				if err != nil {
					return errors.NewValidationError(
						fmt.Sprintf("invalid --since %q", flagSince),
						`Use the format "YYYY-MM-DD HH:MM:SS UTC", e.g. "2012-04-18 10:30:00 UTC".`,
					)
				}
				q.Since = since
			}
			return read(cmd, g, func(ctx context.Context, c *usercycle.Client) (any, error) {
				return c.GetEvents(ctx, q)
			})
		},
	}

	cmd.Flags().IntVar(&q.Count, "count", usercycle.DefaultCount, "Results per page")
	cmd.Flags().IntVar(&q.Page, "page", usercycle.DefaultPage, "Page number")
	cmd.Flags().StringVar(&q.Identity, "identity", "", "Only events for this identity")
	cmd.Flags().StringVar(&q.ActionName, "action", "", "Only events with this action name")
	cmd.Flags().StringVar(&flagSince, "since", "", `Only events after this time, "YYYY-MM-DD HH:MM:SS UTC"`)

	return cmd
}

func eventsGetCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(cmd, g, func(ctx context.Context, c *usercycle.Client) (any, error) {
				return c.GetEvent(ctx, args[0])
			})
		},
	}
}

// read runs a single read call and renders its result.
func read(cmd *cobra.Command, g *globalFlags, call func(context.Context, *usercycle.Client) (any, error)) error {
	s, err := newSession(cmd, g)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, span := s.start(cmd)
	defer span.End()

	result, err := call(ctx, s.client)
	if err != nil {
		return s.fail(err)
	}
	s.logger.WithContext(ctx).Debug("read complete", zap.String("command", s.command))
	return s.render(result)
}
