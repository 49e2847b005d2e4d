package songid

import (
	"context"

	"github.com/himanishpuri/songid/pkg/models"
)

type Service interface {
	AddSong(ctx context.Context, audioPath, title, artist, youtubeID string) (string, error)
	MatchSong(ctx context.Context, audioPath string) ([]MatchResult, error)
	Recognize(ctx context.Context, pathOrURL string) (*Recognition, error)
	GetSongByID(songID string) (*Song, error)
	ListSongs() ([]Song, error)
	DeleteSong(songID string) error
	Stats() (Stats, error)
	Close() error
}

type Storage interface {
	RegisterSong(title, artist, youtubeID string, durationMs int) (string, error)
	StoreFingerprints(fingerprints map[uint32][]models.Couple) error
	GetCouplesByHashes(hashes []uint32) (map[uint32][]models.Couple, error)
	DeleteSongByID(songID string) error
	GetSongByID(songID string) (*Song, error)
	GetFingerprintCount(songID string) (int, error)
	ListSongs() ([]Song, error)
	Counts() (songs int64, fingerprints int64, err error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
