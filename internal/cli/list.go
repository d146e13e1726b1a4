package cli

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/fixture-calendar/internal/pipeline"
)

// newListCmd creates the list subcommand sharing the root's options
func newListCmd(opts *options, out io.Writer) *cobra.Command {
	var (
		sortBy   string
		upcoming bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the team's fixtures without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, ok := ParseSortOrder(sortBy)
			if !ok {
				return errors.Newf("invalid sort order: %s (must be 'date', 'opponent' or 'venue')", sortBy)
			}

			p, err := pipeline.New(opts.cfg)
			if err != nil {
				return err
			}
			resolved, res, err := p.Collect(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			if upcoming {
				resolved = filterUpcoming(resolved, now)
			}
			sortFixtures(resolved, order)

			format, _ := opts.outputFormat()
			result := NewListResult(opts.cfg.Team, res.Strategy, res.Scanned, resolved, now)
			return WriteList(out, result, format, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(SortByDate), "Sort order: date, opponent or venue")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only show fixtures that have not started yet")

	return cmd
}
