package songid

import (
	"github.com/himanishpuri/songid/pkg/models"
	"github.com/himanishpuri/songid/pkg/songid/storage"
)

// storageAdapter adapts storage.DBClient to the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// ErrSongNotFound is returned for unknown song IDs.
var ErrSongNotFound = storage.ErrSongNotFound

// NewSQLiteStorage opens the SQLite catalog at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func toSong(s *storage.Song) Song {
	return Song{
		ID:         s.ID,
		Title:      s.Title,
		Artist:     s.Artist,
		YouTubeID:  s.YouTubeID,
		DurationMs: s.DurationMs,
		CreatedAt:  s.CreatedAt,
	}
}

func (s *storageAdapter) RegisterSong(title, artist, youtubeID string, durationMs int) (string, error) {
	return s.db.RegisterSong(title, artist, youtubeID, durationMs)
}

func (s *storageAdapter) StoreFingerprints(fingerprints map[uint32][]models.Couple) error {
	return s.db.StoreFingerprints(fingerprints)
}

func (s *storageAdapter) GetCouplesByHashes(hashes []uint32) (map[uint32][]models.Couple, error) {
	return s.db.GetCouplesByHashes(hashes)
}

func (s *storageAdapter) DeleteSongByID(songID string) error {
	return s.db.DeleteSongByID(songID)
}

func (s *storageAdapter) GetSongByID(songID string) (*Song, error) {
	dbSong, err := s.db.GetSongByID(songID)
	if err != nil {
		return nil, err
	}
	song := toSong(dbSong)
	return &song, nil
}

func (s *storageAdapter) GetFingerprintCount(songID string) (int, error) {
	return s.db.GetFingerprintCount(songID)
}

func (s *storageAdapter) ListSongs() ([]Song, error) {
	dbSongs, err := s.db.ListSongs()
	if err != nil {
		return nil, err
	}
	songs := make([]Song, len(dbSongs))
	for i := range dbSongs {
		songs[i] = toSong(&dbSongs[i])
	}
	return songs, nil
}

func (s *storageAdapter) Counts() (int64, int64, error) {
	return s.db.Counts()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
