package main

import (
	"errors"

	"github.com/himanishpuri/songid/pkg/songid"
)

// AddSongYouTubeRequest is the request body for POST /api/songs/youtube
type AddSongYouTubeRequest struct {
	// YouTubeURL is the full YouTube video URL (required)
	YouTubeURL string `json:"youtube_url"`

	// Title and Artist fall back to the video's metadata when empty
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

func (r *AddSongYouTubeRequest) Validate() error {
	if r.YouTubeURL == "" {
		return errors.New("youtube_url is required")
	}
	return nil
}

// AddSongResponse is the response for successful song addition
type AddSongResponse struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	YouTubeID string `json:"youtube_id,omitempty"`
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []songid.Song `json:"songs"`
	Count int           `json:"count"`
}

// MatchResponse is the response for POST /api/match
type MatchResponse struct {
	Matches []songid.MatchResult `json:"matches"`
	Count   int                  `json:"count"`
}

// DeleteSongResponse is the response for DELETE /api/songs/{id}
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and catalog metrics
type MetricsResponse struct {
	Status           string `json:"status"`
	DatabasePath     string `json:"database_path"`
	SongCount        int64  `json:"song_count"`
	FingerprintCount int64  `json:"fingerprint_count"`
	SampleRate       int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
