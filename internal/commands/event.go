package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/usercycle/internal/errors"
	"github.com/otherjamesbrown/usercycle/internal/output"
	"github.com/otherjamesbrown/usercycle/usercycle"
)

// EventCommand creates the event command group, one subcommand per
// lifecycle action plus "set" for arbitrary actions.
func EventCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record lifecycle events",
		Long:  "Record a lifecycle event for an end user. Properties are passed as repeated --prop key=value flags.",
	}

	cmd.AddCommand(signupCommand(g))
	cmd.AddCommand(actionCommand(g, "activated", usercycle.ActionActivated, "Record that a user reached activation"))
	cmd.AddCommand(actionCommand(g, "came-back", usercycle.ActionCameBack, "Record a returning visit"))
	cmd.AddCommand(actionCommand(g, "purchased", usercycle.ActionPurchased, "Record a purchase"))
	cmd.AddCommand(actionCommand(g, "referred", usercycle.ActionReferred, "Record that a user referred someone"))
	cmd.AddCommand(actionCommand(g, "canceled", usercycle.ActionCanceled, "Record a cancellation"))
	cmd.AddCommand(setCommand(g))

	return cmd
}

// eventFlags are the flags every submission takes.
type eventFlags struct {
	identity   string
	occurredAt string
	props      []string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.identity, "identity", "", "End-user identity (required)")
	cmd.Flags().StringVar(&f.occurredAt, "occurred-at", "", `When the event happened, "YYYY-MM-DD HH:MM:SS UTC" or "now" (default: server time)`)
	cmd.Flags().StringArrayVar(&f.props, "prop", nil, "Event property as key=value (repeatable)")
}

// event builds the submission; validation of its contents is left to the client.
func (f *eventFlags) event(action string) (usercycle.Event, error) {
	if strings.TrimSpace(f.identity) == "" {
		return usercycle.Event{}, errors.NewValidationError("--identity is required", "Provide the end user's identifier with --identity.")
	}

	props, err := parseProps(f.props)
	if err != nil {
		return usercycle.Event{}, err
	}

	ev := usercycle.Event{
		Identity:   f.identity,
		ActionName: action,
		Properties: props,
	}
	switch f.occurredAt {
	case "":
	case "now":
		ev.OccurredAt = time.Now()
	default:
		ev.OccurredAt = f.occurredAt
	}
	return ev, nil
}

func parseProps(pairs []string) (usercycle.Properties, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := usercycle.Properties{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.NewValidationError(
				fmt.Sprintf("invalid --prop %q", pair),
				"Use --prop key=value, e.g. --prop plan_name=pro.",
			)
		}
		props[key] = value
	}
	return props, nil
}

func actionCommand(g *globalFlags, use, action, short string) *cobra.Command {
	f := &eventFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := f.event(action)
			if err != nil {
				return err
			}
			return submit(cmd, g, ev)
		},
	}
	f.register(cmd)
	return cmd
}

func setCommand(g *globalFlags) *cobra.Command {
	f := &eventFlags{}
	var flagAction string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Record an event with an arbitrary action name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flagAction) == "" {
				return errors.NewValidationError("--action is required", "Provide the event name with --action.")
			}
			ev, err := f.event(flagAction)
			if err != nil {
				return err
			}
			return submit(cmd, g, ev)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&flagAction, "action", "", "Action name (required)")
	return cmd
}

func signupCommand(g *globalFlags) *cobra.Command {
	f := &eventFlags{}
	var profile usercycle.SignupProfile

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Record that a user created an account",
		Long:  "Record a signup. Profile flags become signup properties; explicit --prop values win on conflict.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := f.event(usercycle.ActionSignup)
			if err != nil {
				return err
			}
			ev.Properties = profile.Merge(ev.Properties)
			return submit(cmd, g, ev)
		},
	}
	f.register(cmd)

	fl := cmd.Flags()
	fl.StringVar(&profile.FirstName, "first-name", "", "First name")
	fl.StringVar(&profile.LastName, "last-name", "", "Last name")
	fl.StringVar(&profile.Title, "title", "", "Job title")
	fl.StringVar(&profile.Company, "company", "", "Company")
	fl.StringVar(&profile.Email, "email", "", "Email address")
	fl.StringVar(&profile.Phone, "phone", "", "Phone number")
	fl.StringVar(&profile.Twitter, "twitter", "", "Twitter handle")
	fl.StringVar(&profile.Facebook, "facebook", "", "Facebook profile")
	fl.StringVar(&profile.PlanName, "plan-name", "", "Plan name")
	fl.StringVar(&profile.Referrer, "referrer", "", "Referrer")
	fl.StringVar(&profile.CampaignSource, "campaign-source", "", "Campaign source")
	fl.StringVar(&profile.SearchTerms, "search-terms", "", "Search terms")
	return cmd
}

func submit(cmd *cobra.Command, g *globalFlags, ev usercycle.Event) error {
	s, err := newSession(cmd, g)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, span := s.start(cmd)
	defer span.End()

	start := time.Now()
	result, err := s.client.SetEvent(ctx, ev)
	s.recordAudit(ev, start, err)
	if err != nil {
		return s.fail(err)
	}

	s.logger.WithIdentity(ev.Identity).Debug("event recorded",
		zap.String("action", ev.ActionName),
		zap.Duration("duration", time.Since(start)),
	)

	if s.cfg.Quiet && s.cfg.OutputFormat != output.FormatJSON {
		return nil
	}
	return s.render(result)
}
