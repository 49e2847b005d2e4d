package songid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/songid/internal/testsupport"
	"github.com/himanishpuri/songid/pkg/songid/audio"
	"github.com/himanishpuri/songid/pkg/songid/fingerprint"
)

const testRate = audio.DefaultSampleRate

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}

// passthrough stands in for ffmpeg: fixtures are already mono 16-bit WAV.
func passthrough(_ context.Context, in, _ string, _ audio.ConvertWAVConfig) (string, error) {
	if _, err := os.Stat(in); err != nil {
		return "", err
	}
	return in, nil
}

func setupTestService(t *testing.T, opts ...Option) Service {
	t.Helper()

	dir := t.TempDir()
	base := []Option{
		WithDBPath(filepath.Join(dir, "test_songid.sqlite3")),
		WithTempDir(dir),
		WithLogger(nopLogger{}),
		WithConverter(passthrough),
	}
	svc, err := NewService(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// writeClip writes seconds of melody seed starting at a frame-aligned sample.
func writeClip(t *testing.T, seed int64, startFrame int, seconds float64) string {
	t.Helper()
	full := testsupport.Melody(testRate, 12, seed)
	start := startFrame * fingerprint.HopSize
	end := start + int(seconds*testRate)
	return testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "clip.wav"), testRate, 1, full[start:end])
}

func addMelody(t *testing.T, svc Service, seed int64, title, artist, ytID string) string {
	t.Helper()
	path := testsupport.WriteMelodyWAV(t, t.TempDir(), title+".wav", testRate, 12, seed)
	id, err := svc.AddSong(t.Context(), path, title, artist, ytID)
	require.NoError(t, err)
	return id
}

func TestNewServiceRejectsBadRate(t *testing.T) {
	_, err := NewService(WithDBPath(filepath.Join(t.TempDir(), "x.db")), WithSampleRate(0))
	assert.ErrorContains(t, err, "sample rate")
}

func TestAddSongRequiresTitleAndArtist(t *testing.T) {
	svc := setupTestService(t)
	path := testsupport.WriteMelodyWAV(t, t.TempDir(), "untagged.wav", testRate, 2, 1)

	_, err := svc.AddSong(t.Context(), path, "", "Artist", "")
	assert.ErrorContains(t, err, "title and artist are required")
}

func TestAddSongRejectsSilence(t *testing.T) {
	svc := setupTestService(t)
	path := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "silence.wav"), testRate, 1, make([]int, testRate*2))

	_, err := svc.AddSong(t.Context(), path, "Quiet", "Nobody", "")
	assert.ErrorContains(t, err, "no spectral peaks")

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Songs)
}

func TestAddAndMatchSong(t *testing.T) {
	svc := setupTestService(t)
	idA := addMelody(t, svc, 1, "Song A", "Artist", "")
	idB := addMelody(t, svc, 2, "Song B", "Artist", "")
	require.NotEqual(t, idA, idB)

	results, err := svc.MatchSong(t.Context(), writeClip(t, 1, 130, 5))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, idA, top.SongID)
	assert.Equal(t, "Song A", top.Title)
	wantOffset := int32(130 * fingerprint.HopSize * 1000 / testRate)
	assert.InDelta(t, wantOffset, top.OffsetMs, 5)
	assert.Greater(t, top.Confidence, 50.0)

	for _, r := range results[1:] {
		assert.Less(t, r.Score, top.Score)
	}
}

func TestRecognizeReportsTrack(t *testing.T) {
	svc := setupTestService(t)
	id := addMelody(t, svc, 3, "Sandstorm", "Darude", "y6120QOlsfU")

	rec, err := svc.Recognize(t.Context(), writeClip(t, 3, 86, 4))
	require.NoError(t, err)

	require.NotEmpty(t, rec.Matches)
	assert.Equal(t, id, rec.Matches[0].ID)
	assert.InDelta(t, 2.0, rec.Matches[0].Offset, 0.05)
	assert.Len(t, rec.TagID, 36)
	assert.Positive(t, rec.Timestamp)

	require.NotNil(t, rec.Track)
	assert.Equal(t, "Sandstorm", rec.Track.Title)
	assert.Equal(t, "Darude", rec.Track.Subtitle)
	assert.Equal(t, "https://youtube.com/watch?v=y6120QOlsfU", rec.Track.URL)
	assert.Equal(t, "https://i.ytimg.com/vi/y6120QOlsfU/hqdefault.jpg", rec.Track.Images.CoverArt)
}

func TestRecognizeNoMatch(t *testing.T) {
	svc := setupTestService(t)

	rec, err := svc.Recognize(t.Context(), writeClip(t, 4, 0, 3))
	require.NoError(t, err)
	assert.Empty(t, rec.Matches)
	assert.NotNil(t, rec.Matches)
	assert.Nil(t, rec.Track)
}

func TestRecognizeBelowMinConfidence(t *testing.T) {
	svc := setupTestService(t, WithMinConfidence(101))
	addMelody(t, svc, 5, "Song", "Artist", "")

	rec, err := svc.Recognize(t.Context(), writeClip(t, 5, 0, 4))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Matches)
	assert.Nil(t, rec.Track)
}

func TestRecognizeMissingFile(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Recognize(t.Context(), filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecognizeURL(t *testing.T) {
	tmp := t.TempDir()
	svc := setupTestService(t, WithTempDir(tmp))
	id := addMelody(t, svc, 6, "Remote", "Artist", "")

	clip, err := os.ReadFile(writeClip(t, 6, 43, 4))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(clip)
	}))
	defer srv.Close()

	before, err := os.ReadDir(tmp)
	require.NoError(t, err)

	rec, err := svc.Recognize(t.Context(), srv.URL+"/voice/clip.wav")
	require.NoError(t, err)
	require.NotEmpty(t, rec.Matches)
	assert.Equal(t, id, rec.Matches[0].ID)

	after, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "downloaded file is removed")
}

func TestCatalogOperations(t *testing.T) {
	svc := setupTestService(t)
	id := addMelody(t, svc, 7, "Keep", "Artist", "")
	gone := addMelody(t, svc, 8, "Drop", "Artist", "")

	song, err := svc.GetSongByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Keep", song.Title)
	assert.Positive(t, song.DurationMs)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Songs)
	assert.Positive(t, stats.Fingerprints)

	require.NoError(t, svc.DeleteSong(gone))
	assert.ErrorIs(t, svc.DeleteSong(gone), ErrSongNotFound)

	_, err = svc.GetSongByID(gone)
	assert.ErrorIs(t, err, ErrSongNotFound)

	songs, err := svc.ListSongs()
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, id, songs[0].ID)
}

func TestCalculateConfidence(t *testing.T) {
	assert.Zero(t, calculateConfidence(0, 100, 100))
	assert.Zero(t, calculateConfidence(10, 0, 100))

	low := calculateConfidence(5, 1000, 1000)
	mid := calculateConfidence(150, 1000, 1000)
	high := calculateConfidence(800, 1000, 1000)
	assert.Less(t, low, mid)
	assert.Less(t, mid, high)
	assert.InDelta(t, 50.0, mid, 0.01)
	assert.LessOrEqual(t, high, 100.0)

	// a short clip against a long song is judged by the clip's size
	assert.Equal(t, calculateConfidence(80, 100, 5000), calculateConfidence(80, 100, 100))
	assert.Less(t, calculateConfidence(4, 5, 5), calculateConfidence(5, 5, 5))
}
