package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tags holds the container tags songid reads when a song is added without an
// explicit title or artist.
type Tags struct {
	Title  string
	Artist string
}

type probeTags struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// ReadTags asks ffprobe for the title and artist tags of path. Tag keys
// match case-insensitively.
func ReadTags(ctx context.Context, path string) (*Tags, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format_tags:stream=codec_type",
		path,
	).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseTags(out)
}

func parseTags(out []byte) (*Tags, error) {
	var probe probeTags
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	hasAudio := false
	for _, s := range probe.Streams {
		hasAudio = hasAudio || s.CodecType == "audio"
	}
	if !hasAudio {
		return nil, errors.New("no audio stream found")
	}

	tags := &Tags{}
	for key, value := range probe.Format.Tags {
		switch strings.ToLower(key) {
		case "title":
			tags.Title = strings.TrimSpace(value)
		case "artist":
			tags.Artist = strings.TrimSpace(value)
		}
	}
	return tags, nil
}
