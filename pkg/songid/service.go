// Package songid identifies songs by acoustic fingerprint against a local
// catalog. Service is the entry point; NewService wires the SQLite catalog,
// ffmpeg conversion and the fingerprint pipeline together.
package songid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid/audio"
	"github.com/himanishpuri/songid/pkg/songid/fingerprint"
	"github.com/himanishpuri/songid/pkg/utils"
)

const maxRecognitionMatches = 5

// songService is the default implementation of the Service interface.
type songService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Converter == nil {
		cfg.Converter = audio.ConvertToMonoWAV
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &songService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// analysis is the fingerprint-ready form of one input file.
type analysis struct {
	peaks      []fingerprint.Peak
	durationMs int
}

// analyze converts audioPath to mono WAV, then extracts spectral peaks. The
// intermediate WAV is removed before returning.
func (s *songService) analyze(ctx context.Context, audioPath string) (*analysis, error) {
	wavPath, err := s.config.Converter(ctx, audioPath, s.config.TempDir, audio.ConvertWAVConfig{
		SampleRate: s.config.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("audio conversion failed: %w", err)
	}
	if wavPath != audioPath {
		defer os.Remove(wavPath)
	}

	samples, sampleRate, err := audio.ReadWavAsFloat64(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	spec, err := fingerprint.ComputeSpectrogram(samples, sampleRate, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("spectrogram generation failed: %w", err)
	}

	peaks := fingerprint.ExtractPeaks(spec, sampleRate)
	s.log.Debugf("Extracted %d peaks from %s", len(peaks), audioPath)

	return &analysis{
		peaks:      peaks,
		durationMs: int(float64(len(samples)) / float64(sampleRate) * 1000),
	}, nil
}

// AddSong processes an audio file and stores its fingerprint in the catalog.
// Empty title or artist are filled from the file's tags when possible.
func (s *songService) AddSong(ctx context.Context, audioPath, title, artist, youtubeID string) (string, error) {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" || artist == "" {
		if tags, err := audio.ReadTags(ctx, audioPath); err == nil {
			if title == "" {
				title = tags.Title
			}
			if artist == "" {
				artist = tags.Artist
			}
		} else {
			s.log.Debugf("No tags for %s: %v", audioPath, err)
		}
	}
	if title == "" || artist == "" {
		return "", errors.New("title and artist are required (not found in file tags)")
	}

	s.log.Infof("Processing song: %s by %s", title, artist)

	a, err := s.analyze(ctx, audioPath)
	if err != nil {
		return "", err
	}
	if len(a.peaks) == 0 {
		return "", errors.New("no spectral peaks found; is the audio silent?")
	}

	songID, err := s.storage.RegisterSong(title, artist, youtubeID, a.durationMs)
	if err != nil {
		return "", fmt.Errorf("failed to register song: %w", err)
	}

	fps := fingerprint.Fingerprint(a.peaks, songID)
	s.log.Infof("Generated %d unique hashes", len(fps))

	if err := s.storage.StoreFingerprints(fps); err != nil {
		if delErr := s.storage.DeleteSongByID(songID); delErr != nil {
			s.log.Warnf("Rollback of song %s failed: %v", songID, delErr)
		}
		return "", fmt.Errorf("failed to store fingerprints: %w", err)
	}

	s.log.Infof("Successfully added song ID=%s", songID)
	return songID, nil
}

// MatchSong finds catalog songs aligned with a query audio file, best first.
func (s *songService) MatchSong(ctx context.Context, audioPath string) ([]MatchResult, error) {
	s.log.Infof("Matching audio: %s", audioPath)

	a, err := s.analyze(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	query := fingerprint.QueryHashes(a.peaks)
	queryCount := fingerprint.CountHashes(query)
	if queryCount == 0 {
		s.log.Infof("Query produced no hashes")
		return []MatchResult{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hashes := make([]uint32, 0, len(query))
	for h := range query {
		hashes = append(hashes, h)
	}
	dbMap, err := s.storage.GetCouplesByHashes(hashes)
	if err != nil {
		return nil, fmt.Errorf("fingerprint lookup failed: %w", err)
	}
	s.log.Debugf("Retrieved couples for %d/%d hashes", len(dbMap), len(query))

	matches := fingerprint.Vote(query, dbMap)

	results := make([]MatchResult, 0, len(matches))
	for _, match := range matches {
		song, err := s.storage.GetSongByID(match.SongID)
		if err != nil {
			s.log.Warnf("Failed to get song %s: %v", match.SongID, err)
			continue
		}

		dbCount, err := s.storage.GetFingerprintCount(match.SongID)
		if err != nil {
			s.log.Warnf("Failed to get fingerprint count for song %s: %v", match.SongID, err)
			dbCount = queryCount
		}

		results = append(results, MatchResult{
			SongID:     match.SongID,
			Title:      song.Title,
			Artist:     song.Artist,
			YouTubeID:  song.YouTubeID,
			Score:      match.Count,
			OffsetMs:   match.OffsetMs,
			Confidence: calculateConfidence(match.Count, queryCount, dbCount),
		})
	}

	s.log.Infof("Found %d candidate matches", len(results))
	return results, nil
}

// Recognize matches a file path or http(s) URL and renders the outcome as a
// Recognition. A miss is not an error: Matches is empty and Track is nil.
func (s *songService) Recognize(ctx context.Context, pathOrURL string) (*Recognition, error) {
	path := pathOrURL
	if utils.IsRemoteURL(pathOrURL) {
		downloaded, err := audio.FetchToTemp(ctx, s.config.HTTPClient, pathOrURL, s.config.TempDir)
		if err != nil {
			return nil, err
		}
		defer os.Remove(downloaded)
		path = downloaded
	}

	results, err := s.MatchSong(ctx, path)
	if err != nil {
		return nil, err
	}

	rec := &Recognition{
		Matches:   make([]RecognitionMatch, 0, min(len(results), maxRecognitionMatches)),
		TagID:     uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	}
	for i, r := range results {
		if i == maxRecognitionMatches {
			break
		}
		rec.Matches = append(rec.Matches, RecognitionMatch{
			ID:         r.SongID,
			Offset:     float64(r.OffsetMs) / 1000,
			Score:      r.Score,
			Confidence: math.Round(r.Confidence*10) / 10,
		})
	}

	if len(results) > 0 && results[0].Confidence >= s.config.MinConfidence {
		rec.Track = trackFor(results[0])
	}
	return rec, nil
}

func trackFor(r MatchResult) *Track {
	return &Track{
		Key:      r.SongID,
		Title:    r.Title,
		Subtitle: r.Artist,
		URL:      utils.YouTubeWatchURL(r.YouTubeID),
		Images:   TrackImages{CoverArt: utils.YouTubeThumbnailURL(r.YouTubeID)},
	}
}

// calculateConfidence maps an aligned-hash count to 0-100. The ratio is taken
// against the smaller of query and song so short clips of long songs can still
// score high; a logistic curve centred at 15% spreads the useful range and
// counts under five are scaled down as noise.
func calculateConfidence(matchCount, queryFPCount, dbFPCount int) float64 {
	if matchCount == 0 || queryFPCount == 0 || dbFPCount == 0 {
		return 0.0
	}

	ref := min(queryFPCount, dbFPCount)
	ratio := float64(matchCount) / float64(ref)

	const (
		steepness = 20.0
		midpoint  = 0.15
	)

	confidence := 100.0 / (1.0 + math.Exp(-steepness*(ratio-midpoint)))

	if ratio > 0.30 {
		confidence = math.Min(100.0, confidence+(ratio-0.30)*50)
	}

	if matchCount < 5 {
		confidence *= float64(matchCount) / 5.0
	}

	return confidence
}

// GetSongByID retrieves a song's metadata by its catalog ID.
func (s *songService) GetSongByID(songID string) (*Song, error) {
	return s.storage.GetSongByID(songID)
}

// ListSongs returns all songs in the catalog.
func (s *songService) ListSongs() ([]Song, error) {
	return s.storage.ListSongs()
}

// DeleteSong removes a song and all its fingerprints.
func (s *songService) DeleteSong(songID string) error {
	return s.storage.DeleteSongByID(songID)
}

func (s *songService) Stats() (Stats, error) {
	songs, fps, err := s.storage.Counts()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Songs: songs, Fingerprints: fps}, nil
}

// Close releases all resources held by the service.
func (s *songService) Close() error {
	return s.storage.Close()
}
