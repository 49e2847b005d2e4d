package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid"
	"github.com/himanishpuri/songid/pkg/songid/audio"
	"github.com/himanishpuri/songid/pkg/utils"
)

const addTimeout = 5 * time.Minute

type addOptions struct {
	title      string
	artist     string
	youtubeID  string
	youtubeURL string
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add [audio-file]",
		Short: "Fingerprint a song and add it to the catalog",
		Example: `  catalog add song.mp3 --title "Sandstorm" --artist "Darude"
  catalog add --youtube-url "https://youtube.com/watch?v=y6120QOlsfU"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var audioPath string
			if len(args) == 1 {
				audioPath = args[0]
			}
			switch {
			case opts.youtubeURL != "" && audioPath != "":
				return errors.New("cannot specify both an audio file and --youtube-url")
			case opts.youtubeURL == "" && audioPath == "":
				return errors.New("audio file path or --youtube-url required")
			}

			return ctx.withService(cmd, true, func(c context.Context, svc songid.Service) error {
				c, cancel := context.WithTimeout(c, addTimeout)
				defer cancel()

				if opts.youtubeURL != "" {
					cfg, _ := ctx.ensureConfig(cmd)
					path, err := opts.download(c, cmd, cfg.TempDir)
					if err != nil {
						return err
					}
					defer utils.RemoveQuietly(path)
					audioPath = path
				}
				return opts.add(c, cmd, svc, audioPath)
			})
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Song title (read from file tags when omitted)")
	cmd.Flags().StringVar(&opts.artist, "artist", "", "Artist name (read from file tags when omitted)")
	cmd.Flags().StringVar(&opts.youtubeID, "youtube", "", "YouTube video ID to link the song to")
	cmd.Flags().StringVar(&opts.youtubeURL, "youtube-url", "", "YouTube URL to download and add instead of a file")

	return cmd
}

// download fetches the YouTube audio and fills any metadata the user left out.
func (o *addOptions) download(ctx context.Context, cmd *cobra.Command, tempDir string) (string, error) {
	log := logger.GetLogger()
	if !utils.IsYouTubeURL(o.youtubeURL) {
		return "", fmt.Errorf("not a YouTube URL: %s", o.youtubeURL)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Downloading audio from YouTube...")
	path, meta, err := audio.DownloadYouTubeAudio(ctx, o.youtubeURL, tempDir)
	if err != nil {
		return "", fmt.Errorf("failed to download YouTube video: %w", err)
	}

	if o.title == "" {
		o.title = meta.Title
		log.Infof("Using YouTube title: %s", o.title)
	}
	if o.artist == "" {
		o.artist = meta.Artist
		log.Infof("Using YouTube artist: %s", o.artist)
	}
	if o.youtubeID == "" {
		if id, err := utils.ExtractYouTubeID(o.youtubeURL); err == nil {
			o.youtubeID = id
		} else {
			o.youtubeID = meta.ID
		}
	}
	return path, nil
}

func (o *addOptions) add(ctx context.Context, cmd *cobra.Command, svc songid.Service, audioPath string) error {
	if _, err := os.Stat(audioPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Processing audio file...")

	songID, err := svc.AddSong(ctx, audioPath, o.title, o.artist, o.youtubeID)
	if err != nil {
		return fmt.Errorf("failed to add song: %w", err)
	}

	song, err := svc.GetSongByID(songID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Added song to catalog")
	fmt.Fprintln(out, renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"ID", song.ID},
			{"Title", song.Title},
			{"Artist", song.Artist},
			{"YouTube", utils.YouTubeWatchURL(song.YouTubeID)},
			{"Duration", formatDuration(song.DurationMs)},
		},
		nil,
	))
	return nil
}
