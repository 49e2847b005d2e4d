package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/pkg/songid/audio"
	"github.com/himanishpuri/songid/pkg/songid/fingerprint"
	"github.com/himanishpuri/songid/pkg/utils"
)

func newSpectrogramCommand(ctx *commandContext) *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "spectrogram <audio-file> <output.png>",
		Short: "Render an audio file's spectrogram as a PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			wavPath := in
			if !strings.EqualFold(filepath.Ext(in), ".wav") {
				cfg, err := ctx.ensureConfig(cmd)
				if err != nil {
					return err
				}
				converted, err := audio.ConvertToMonoWAV(cmd.Context(), in, cfg.TempDir, audio.ConvertWAVConfig{SampleRate: cfg.SampleRate})
				if err != nil {
					return fmt.Errorf("audio conversion failed: %w", err)
				}
				defer utils.RemoveQuietly(converted)
				wavPath = converted
			}

			samples, rate, err := audio.ReadWavAsFloat64(wavPath)
			if err != nil {
				return err
			}
			if err := fingerprint.RenderSpectrogramPNG(samples, rate, width, height, out); err != nil {
				return fmt.Errorf("rendering spectrogram: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 1024, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 512, "Image height in pixels")
	return cmd
}
