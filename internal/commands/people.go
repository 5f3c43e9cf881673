package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

// PeopleCommand creates the people command group.
func PeopleCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Read tracked people",
	}

	var q usercycle.PeopleQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List people",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(cmd, g, func(ctx context.Context, c *usercycle.Client) (any, error) {
				return c.GetPeople(ctx, q)
			})
		},
	}
	list.Flags().IntVar(&q.Count, "count", usercycle.DefaultCount, "Results per page")
	list.Flags().IntVar(&q.Page, "page", usercycle.DefaultPage, "Page number")
	list.Flags().StringVar(&q.Identity, "identity", "", "Only this identity")

	cmd.AddCommand(list)
	return cmd
}
