package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/pkg/songid"
	"github.com/himanishpuri/songid/pkg/utils"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(_ context.Context, svc songid.Service) error {
				songs, err := svc.ListSongs()
				if err != nil {
					return fmt.Errorf("failed to list songs: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(songs) == 0 {
					fmt.Fprintln(out, "No songs in catalog")
					return nil
				}

				rows := make([][]string, 0, len(songs))
				for i, s := range songs {
					rows = append(rows, []string{
						strconv.Itoa(i + 1), s.ID, s.Title, s.Artist,
						formatDuration(s.DurationMs), utils.YouTubeWatchURL(s.YouTubeID),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "ID", "Title", "Artist", "Duration", "YouTube"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <song-id>",
		Short: "Remove a song and its fingerprints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(_ context.Context, svc songid.Service) error {
				song, err := svc.GetSongByID(args[0])
				if err != nil {
					return fmt.Errorf("song %s: %w", args[0], err)
				}
				if err := svc.DeleteSong(song.ID); err != nil {
					return fmt.Errorf("failed to delete song: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q by %s (%s)\n", song.Title, song.Artist, song.ID)
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(_ context.Context, svc songid.Service) error {
				stats, err := svc.Stats()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Songs", "Fingerprints"},
					[][]string{{strconv.FormatInt(stats.Songs, 10), strconv.FormatInt(stats.Fingerprints, 10)}},
					[]columnAlignment{alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
