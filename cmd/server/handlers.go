package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/songid/internal/config"
	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid"
	"github.com/himanishpuri/songid/pkg/songid/audio"
	"github.com/himanishpuri/songid/pkg/utils"
)

const (
	addTimeout   = 5 * time.Minute
	matchTimeout = 2 * time.Minute
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service songid.Service
	config  config.Config
	log     songid.Logger

	// downloadYouTube is swapped out in tests
	downloadYouTube func(ctx context.Context, url, dir string) (string, *audio.YTMetadata, error)
}

// NewServer creates a new server instance
func NewServer(service songid.Service, cfg config.Config) *Server {
	return &Server{
		service:         service,
		config:          cfg,
		log:             logger.GetLogger().WithPrefix("http"),
		downloadYouTube: audio.DownloadYouTubeAudio,
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.config.Server.MaxUploadMB) << 20
}

// saveUpload stores the request's audio in the temp dir and returns its path
// and original name. Multipart bodies must carry the file in the "audio"
// field; anything else is taken as the raw audio bytes.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, prefix string) (path, name string, status int, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		path, err = utils.WriteTemp(s.config.TempDir, prefix+"_*.bin", r.Body)
		if err != nil {
			return "", "", uploadStatus(err), fmt.Errorf("failed to save upload: %w", err)
		}
		return path, filepath.Base(path), 0, nil
	}

	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		return "", "", uploadStatus(err), errors.New("failed to parse form data")
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return "", "", http.StatusBadRequest, errors.New("audio file is required")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(ext) > 6 {
		ext = ""
	}
	path, err = utils.WriteTemp(s.config.TempDir, prefix+"_*"+ext, file)
	if err != nil {
		return "", "", http.StatusInternalServerError, errors.New("failed to save uploaded file")
	}
	return path, header.Filename, 0, nil
}

func uploadStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "songid API",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"songs":          "GET /api/songs",
			"addSongFile":    "POST /api/songs",
			"addSongYouTube": "POST /api/songs/youtube",
			"getSong":        "GET /api/songs/{id}",
			"deleteSong":     "DELETE /api/songs/{id}",
			"matchFile":      "POST /api/match",
			"recognize":      "POST /recognize",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats()
	if err != nil {
		s.log.Errorf("Failed to get catalog stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:           "healthy",
		DatabasePath:     s.config.DBPath,
		SongCount:        stats.Songs,
		FingerprintCount: stats.Fingerprints,
		SampleRate:       s.config.SampleRate,
	})
}

// handleListSongs handles GET /api/songs
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs()
	if err != nil {
		s.log.Errorf("Failed to list songs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve songs")
		return
	}
	if songs == nil {
		songs = []songid.Song{}
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: songs,
		Count: len(songs),
	})
}

// handleGetSong handles GET /api/songs/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	songID := r.PathValue("id")
	song, err := s.service.GetSongByID(songID)
	if err != nil {
		s.songLookupError(w, songID, err)
		return
	}
	s.respondJSON(w, http.StatusOK, song)
}

// handleDeleteSong handles DELETE /api/songs/{id}
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	songID := r.PathValue("id")
	song, err := s.service.GetSongByID(songID)
	if err != nil {
		s.songLookupError(w, songID, err)
		return
	}

	if err := s.service.DeleteSong(songID); err != nil {
		s.log.Errorf("Failed to delete song %s: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	s.log.Infof("Deleted song: %s by %s (ID: %s)", song.Title, song.Artist, songID)
	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

func (s *Server) songLookupError(w http.ResponseWriter, songID string, err error) {
	if errors.Is(err, songid.ErrSongNotFound) {
		s.log.Warnf("Song not found: %s", songID)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song with ID %s not found", songID))
		return
	}
	s.log.Errorf("Failed to get song %s: %v", songID, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to retrieve song")
}

// handleAddSongFile handles POST /api/songs (multipart file upload)
func (s *Server) handleAddSongFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), addTimeout)
	defer cancel()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.respondError(w, http.StatusBadRequest, "multipart form with an audio file is required")
		return
	}

	path, _, status, err := s.saveUpload(w, r, "upload")
	if err != nil {
		s.log.Errorf("Upload failed: %v", err)
		s.respondError(w, status, err.Error())
		return
	}
	defer utils.RemoveQuietly(path)

	title := r.FormValue("title")
	artist := r.FormValue("artist")
	youtubeID := r.FormValue("youtube_id")

	s.log.Infof("Adding song from file: %s by %s", title, artist)
	songID, err := s.service.AddSong(ctx, path, title, artist, youtubeID)
	if err != nil {
		s.log.Errorf("Failed to add song: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add song: %v", err))
		return
	}

	s.respondAdded(w, songID, "Song added successfully")
}

// handleAddSongYouTube handles POST /api/songs/youtube
func (s *Server) handleAddSongYouTube(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), addTimeout)
	defer cancel()

	var req AddSongYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.IsYouTubeURL(req.YouTubeURL) {
		s.respondError(w, http.StatusBadRequest, "youtube_url is not a YouTube URL")
		return
	}

	s.log.Infof("Adding song from YouTube URL: %s", req.YouTubeURL)
	downloadedPath, ytMeta, err := s.downloadYouTube(ctx, req.YouTubeURL, s.config.TempDir)
	if err != nil {
		s.log.Errorf("Failed to download YouTube video: %v", err)
		s.respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to download YouTube video: %v", err))
		return
	}
	defer utils.RemoveQuietly(downloadedPath)

	title, artist := req.Title, req.Artist
	if title == "" {
		title = ytMeta.Title
	}
	if artist == "" {
		artist = ytMeta.Artist
	}
	youtubeID, err := utils.ExtractYouTubeID(req.YouTubeURL)
	if err != nil {
		youtubeID = ytMeta.ID
	}

	if title == "" || artist == "" {
		s.respondError(w, http.StatusBadRequest, "Could not determine title or artist from YouTube metadata. Please provide them explicitly.")
		return
	}

	songID, err := s.service.AddSong(ctx, downloadedPath, title, artist, youtubeID)
	if err != nil {
		s.log.Errorf("Failed to add song: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add song: %v", err))
		return
	}

	s.respondAdded(w, songID, "Song added successfully from YouTube")
}

func (s *Server) respondAdded(w http.ResponseWriter, songID, message string) {
	resp := AddSongResponse{Message: message, ID: songID}
	if song, err := s.service.GetSongByID(songID); err == nil {
		resp.Title, resp.Artist, resp.YouTubeID = song.Title, song.Artist, song.YouTubeID
	}
	s.log.Infof("Successfully added song: %s by %s (ID: %s)", resp.Title, resp.Artist, songID)
	s.respondJSON(w, http.StatusCreated, resp)
}

// handleMatchFile handles POST /api/match
func (s *Server) handleMatchFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), matchTimeout)
	defer cancel()

	path, name, status, err := s.saveUpload(w, r, "query")
	if err != nil {
		s.log.Errorf("Upload failed: %v", err)
		s.respondError(w, status, err.Error())
		return
	}
	defer utils.RemoveQuietly(path)

	s.log.Infof("Matching uploaded file: %s", name)
	matches, err := s.service.MatchSong(ctx, path)
	if err != nil {
		s.log.Errorf("Failed to match song: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to match song: %v", err))
		return
	}
	if matches == nil {
		matches = []songid.MatchResult{}
	}

	s.respondJSON(w, http.StatusOK, MatchResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// handleRecognize handles POST /recognize. The body is the Recognition
// document itself so remote clients can pass it through unchanged.
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), matchTimeout)
	defer cancel()

	path, name, status, err := s.saveUpload(w, r, "rec")
	if err != nil {
		s.log.Errorf("Upload failed: %v", err)
		s.respondError(w, status, err.Error())
		return
	}
	defer utils.RemoveQuietly(path)

	s.log.Infof("Recognizing upload: %s", name)
	rec, err := s.service.Recognize(ctx, path)
	if err != nil {
		s.log.Errorf("Recognition failed: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, rec)
}
