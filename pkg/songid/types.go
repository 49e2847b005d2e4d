package songid

import "time"

// MatchResult represents a song match result with metadata and scoring.
type MatchResult struct {
	SongID     string  `json:"song_id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	YouTubeID  string  `json:"youtube_id,omitempty"`
	Score      int     `json:"score"`      // aligned hash count
	OffsetMs   int32   `json:"offset_ms"`  // position of the query inside the song
	Confidence float64 `json:"confidence"` // 0-100
}

// Song represents a song entry in the catalog.
type Song struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	YouTubeID  string    `json:"youtube_id,omitempty"`
	DurationMs int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats summarises catalog size.
type Stats struct {
	Songs        int64 `json:"song_count"`
	Fingerprints int64 `json:"fingerprint_count"`
}

// Recognition is the document a recognize call produces. Track is set only
// when the best match clears the configured confidence.
type Recognition struct {
	Matches   []RecognitionMatch `json:"matches"`
	TagID     string             `json:"tagid"`
	Timestamp int64              `json:"timestamp"` // unix ms
	Track     *Track             `json:"track,omitempty"`
}

type RecognitionMatch struct {
	ID         string  `json:"id"`
	Offset     float64 `json:"offset"` // seconds
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
}

type Track struct {
	Key      string      `json:"key"`
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle"` // artist
	URL      string      `json:"url,omitempty"`
	Images   TrackImages `json:"images"`
}

type TrackImages struct {
	CoverArt string `json:"coverart,omitempty"`
}
