package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/songid/pkg/utils"
)

// YTMetadata contains metadata extracted from YouTube video
type YTMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Track      string  `json:"track"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

func pickArtist(meta YTMetadata) string {
	for _, candidate := range []string{meta.Artist, meta.Channel, meta.Uploader} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "Unknown Artist"
}

// pickTitle prefers the music track name over the video title.
func pickTitle(meta YTMetadata) string {
	if strings.TrimSpace(meta.Track) != "" {
		return meta.Track
	}
	return meta.Title
}

func parseYTMetadata(raw string) (*YTMetadata, error) {
	var meta YTMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("missing title in yt-dlp output")
	}
	meta.Artist = pickArtist(meta)
	meta.Title = pickTitle(meta)
	return &meta, nil
}

// DownloadYouTubeAudio fetches metadata and the best audio stream for a video
// into outputDir. The returned file still needs ConvertToMonoWAV.
func DownloadYouTubeAudio(ctx context.Context, youtubeURL string, outputDir string) (audioPath string, metadata *YTMetadata, err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	probe, err := ytdlp.New().
		DumpSingleJSON().
		NoWarnings().
		NoPlaylist().
		Run(ctx, youtubeURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}

	ytMeta, err := parseYTMetadata(probe.Stdout)
	if err != nil {
		return "", nil, err
	}

	outputTemplate := filepath.Join(outputDir, ytMeta.ID+".%(ext)s")

	if _, err := ytdlp.New().
		Format("ba").
		NoWarnings().
		NoPlaylist().
		Output(outputTemplate).
		Run(ctx, youtubeURL); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	audioExtensions := []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg"}
	for _, ext := range audioExtensions {
		candidate := filepath.Join(outputDir, ytMeta.ID+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, ytMeta, nil
		}
	}

	return "", nil, fmt.Errorf("downloaded audio file not found for video %s (checked extensions: %v)", ytMeta.ID, audioExtensions)
}
