package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=abc123&t=42s", "abc123"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/E3Vlhj21ep0", "E3Vlhj21ep0"},
		{"https://www.youtube.com/shorts/E3Vlhj21ep0", "E3Vlhj21ep0"},
	}

	for _, tt := range tests {
		got, err := ExtractYouTubeID(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestExtractYouTubeIDErrors(t *testing.T) {
	for _, u := range []string{"https://youtu.be/", "https://example.com/watch?v=x", "https://www.youtube.com/feed"} {
		_, err := ExtractYouTubeID(u)
		assert.Error(t, err, u)
	}
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("https://api.telegram.org/file/bot/voice.ogg"))
	assert.True(t, IsRemoteURL("http://127.0.0.1:8080/a.mp3"))
	assert.False(t, IsRemoteURL("song.mp3"))
	assert.False(t, IsRemoteURL("/tmp/song.mp3"))
	assert.False(t, IsRemoteURL("file:///tmp/song.mp3"))
	assert.False(t, IsRemoteURL("C:\\music\\song.mp3"))
}

func TestYouTubeLinks(t *testing.T) {
	assert.Equal(t, "https://youtube.com/watch?v=abc", YouTubeWatchURL("abc"))
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hqdefault.jpg", YouTubeThumbnailURL("abc"))
	assert.Empty(t, YouTubeWatchURL(""))
	assert.Empty(t, YouTubeThumbnailURL(""))
}

func TestWriteTemp(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTemp(dir, "upload_*.bin", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	require.NoError(t, RemoveQuietly(path))
	require.NoError(t, RemoveQuietly(path), "removing twice is not an error")
}
