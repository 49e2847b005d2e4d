// Package storage keeps the song catalog and its fingerprints in SQLite.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/songid/pkg/models"
)

const DefaultDBFile = "songid.sqlite3"

const (
	errDBClientNil = "db client is nil"
	insertBatch    = 500
	// SQLite caps bound parameters per statement; stay well under it.
	lookupBatch = 900
)

// ErrSongNotFound is returned when a song ID is not in the catalog.
var ErrSongNotFound = errors.New("song not found")

type DBClient struct {
	DB *gorm.DB
}

type Song struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Title      string `gorm:"uniqueIndex:idx_song_unique,priority:1"`
	Artist     string `gorm:"uniqueIndex:idx_song_unique,priority:2"`
	YouTubeID  string `gorm:"column:youtube_id;index:idx_youtube_id"`
	DurationMs int
	CreatedAt  time.Time
}

type Fingerprint struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Hash         uint32 `gorm:"index:idx_hash"`
	SongID       string `gorm:"type:varchar(36);index:idx_song"`
	AnchorTimeMs uint32
}

// NewDBClientWithPath opens (creating if needed) the database at dbPath and
// migrates the schema.
func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &Fingerprint{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db}, nil
}

func (c *DBClient) ready() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

func (c *DBClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RegisterSong returns the ID of the song with this title and artist, creating
// it if needed. An existing song without a YouTube ID picks up youtubeID.
func (c *DBClient) RegisterSong(title, artist, youtubeID string, durationMs int) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}

	var song Song
	err := c.DB.Where("title = ? AND artist = ?", title, artist).First(&song).Error
	if err == nil {
		if song.YouTubeID == "" && youtubeID != "" {
			if err := c.DB.Model(&song).Update("youtube_id", youtubeID).Error; err != nil {
				return "", fmt.Errorf("updating youtube_id: %w", err)
			}
		}
		return song.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing song: %w", err)
	}

	song = Song{ID: uuid.NewString(), Title: title, Artist: artist, YouTubeID: youtubeID, DurationMs: durationMs}
	if err := c.DB.Create(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if fetchErr := c.DB.Where("title = ? AND artist = ?", title, artist).First(&song).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching song after constraint violation: %w", fetchErr)
			}
			return song.ID, nil
		}
		return "", fmt.Errorf("creating song: %w", err)
	}

	return song.ID, nil
}

// DeleteSongByID removes the song and its fingerprints in one transaction.
func (c *DBClient) DeleteSongByID(songID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&Fingerprint{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", songID).Delete(&Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSongNotFound
		}
		return nil
	})
}

// StoreFingerprints inserts every couple, replacing any fingerprints already
// stored for the songs involved so re-adding a song does not double count.
func (c *DBClient) StoreFingerprints(fp map[uint32][]models.Couple) error {
	if err := c.ready(); err != nil {
		return err
	}

	songs := make(map[string]struct{})
	entries := make([]Fingerprint, 0, 1024)
	for hash, couples := range fp {
		for _, cou := range couples {
			songs[cou.SongID] = struct{}{}
			entries = append(entries, Fingerprint{
				Hash:         hash,
				SongID:       cou.SongID,
				AnchorTimeMs: cou.AnchorTimeMs,
			})
		}
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		for songID := range songs {
			if err := tx.Where("song_id = ?", songID).Delete(&Fingerprint{}).Error; err != nil {
				return fmt.Errorf("clearing old fingerprints: %w", err)
			}
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(entries, insertBatch).Error; err != nil {
			return fmt.Errorf("batch insert fingerprints: %w", err)
		}
		return nil
	})
}

func (c *DBClient) GetCouplesByHash(hash uint32) ([]models.Couple, error) {
	out, err := c.GetCouplesByHashes([]uint32{hash})
	if err != nil {
		return nil, err
	}
	return out[hash], nil
}

// GetCouplesByHashes fetches all buckets for hashes, chunking the IN clause.
func (c *DBClient) GetCouplesByHashes(hashes []uint32) (map[uint32][]models.Couple, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	result := make(map[uint32][]models.Couple)
	for start := 0; start < len(hashes); start += lookupBatch {
		end := min(start+lookupBatch, len(hashes))

		var rows []Fingerprint
		if err := c.DB.Where("hash IN ?", hashes[start:end]).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("batch querying fingerprints: %w", err)
		}
		for _, r := range rows {
			result[r.Hash] = append(result[r.Hash], models.Couple{
				SongID:       r.SongID,
				AnchorTimeMs: r.AnchorTimeMs,
			})
		}
	}

	return result, nil
}

func (c *DBClient) GetSongByID(songID string) (*Song, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var song Song
	if err := c.DB.Where("id = ?", songID).First(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	return &song, nil
}

func (c *DBClient) GetFingerprintCount(songID string) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	var count int64
	if err := c.DB.Model(&Fingerprint{}).Where("song_id = ?", songID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListSongs returns the catalog ordered by artist, then title.
func (c *DBClient) ListSongs() ([]Song, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var songs []Song
	if err := c.DB.Order("artist, title").Find(&songs).Error; err != nil {
		return nil, err
	}
	return songs, nil
}

// Counts returns the number of songs and fingerprints stored.
func (c *DBClient) Counts() (songs int64, fingerprints int64, err error) {
	if err := c.ready(); err != nil {
		return 0, 0, err
	}
	if err := c.DB.Model(&Song{}).Count(&songs).Error; err != nil {
		return 0, 0, err
	}
	if err := c.DB.Model(&Fingerprint{}).Count(&fingerprints).Error; err != nil {
		return 0, 0, err
	}
	return songs, fingerprints, nil
}
