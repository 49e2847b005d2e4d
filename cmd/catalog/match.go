package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/pkg/songid"
)

const matchTimeout = 2 * time.Minute

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "match <audio-file>",
		Short: "Find catalog songs matching an audio clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(c context.Context, svc songid.Service) error {
				c, cancel := context.WithTimeout(c, matchTimeout)
				defer cancel()

				results, err := svc.MatchSong(c, args[0])
				if err != nil {
					return fmt.Errorf("failed to match song: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No matches found in catalog")
					return nil
				}

				shown := results
				if limit > 0 && len(shown) > limit {
					shown = shown[:limit]
				}
				rows := make([][]string, 0, len(shown))
				for i, r := range shown {
					rows = append(rows, []string{
						strconv.Itoa(i + 1), r.Title, r.Artist,
						strconv.Itoa(r.Score),
						fmt.Sprintf("%.1f%%", r.Confidence),
						formatOffset(r.OffsetMs),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Artist", "Score", "Confidence", "Offset"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				if len(results) > len(shown) {
					fmt.Fprintf(out, "... and %d more matches\n", len(results)-len(shown))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum matches to display (0 for all)")
	return cmd
}
