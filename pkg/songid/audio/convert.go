package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/songid/pkg/utils"
)

const DefaultSampleRate = 11025

type ConvertWAVConfig struct {
	SampleRate int // e.g. 11025, 22050, 44100
}

// Converter turns any input ffmpeg understands into a mono 16-bit PCM WAV in
// outputDir and returns the new file's path.
type Converter func(ctx context.Context, inputPath, outputDir string, cfg ConvertWAVConfig) (string, error)

// ConvertToMonoWAV runs ffmpeg and writes a freshly created
// <outputDir>/<base>_*.wav. Existing files in outputDir are never reused, and
// the output is removed again when ffmpeg fails.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (outputPath string, err error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if _, err := os.Stat(inputPath); err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	f, err := os.CreateTemp(outputDir, base+"_*.wav")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	outputPath = f.Name()
	f.Close()
	defer func() {
		if err != nil {
			os.Remove(outputPath)
		}
	}()

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "error",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "pcm_s16le",
		outputPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return "", fmt.Errorf("ffmpeg failed: %w", err)
		}
		return "", fmt.Errorf("ffmpeg failed: %w (%s)", err, msg)
	}

	return outputPath, nil
}
