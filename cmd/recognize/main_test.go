package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SONGID_CONFIG", "SONGID_DB_PATH", "SONGID_TEMP_DIR", "SONGID_BACKEND",
		"SONGID_SERVICE_URL", "SONGID_SAMPLE_RATE", "SONGID_MIN_CONFIDENCE",
		"SONGID_PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (stdout string, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(t.Context(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestNoArgument(t *testing.T) {
	clearEnv(t)

	stdout, _, code := execute(t)
	assert.Equal(t, "{\"error\":\"No file path provided\"}\n", stdout)
	assert.Equal(t, 1, code)

	stdout, _, code = execute(t, "--exit-zero")
	assert.Equal(t, "{\"error\":\"No file path provided\"}\n", stdout)
	assert.Zero(t, code)
}

func TestNoArgumentSkipsBackend(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "never.sqlite3")

	_, _, code := execute(t, "--db", dbPath)
	assert.Equal(t, 1, code)

	_, err := os.Stat(dbPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "catalog is not opened without a file path")
}

func TestFlagErrorIsJSON(t *testing.T) {
	clearEnv(t)

	stdout, _, code := execute(t, "--rate", "fast", "song.mp3")
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
	assert.True(t, strings.HasPrefix(stdout, `{"error":"invalid argument \"fast\"`), stdout)
}

func TestHelpGoesToStderr(t *testing.T) {
	clearEnv(t)

	stdout, stderr, code := execute(t, "--help")
	assert.Zero(t, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "recognize <file-path>")
}

func TestInvalidConfig(t *testing.T) {
	clearEnv(t)

	stdout, _, code := execute(t, "--backend", "shazam", "song.mp3")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `"error":"unknown backend \"shazam\"`)
}

func TestLocalBackendMissingFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.mp3")

	stdout, _, code := execute(t, "--db", filepath.Join(dir, "catalog.sqlite3"), "--temp", dir, missing)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stdout, `{"error":"`), stdout)
	assert.Contains(t, stdout, "no such file or directory")
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
}

func TestRemoteBackendPassesResultThrough(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte("{\n  \"track\": \"X\",\n  \"artist\": \"Y\"\n}"))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("fake"), 0o644))

	stdout, _, code := execute(t, "--backend", "remote", "--service-url", srv.URL, audio)
	assert.Zero(t, code)
	assert.Equal(t, "{\"track\":\"X\",\"artist\":\"Y\"}\n", stdout)
}

func TestRemoteBackendError(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"file not found"}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "missing.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("fake"), 0o644))

	t.Setenv("SONGID_BACKEND", "remote")
	t.Setenv("SONGID_SERVICE_URL", srv.URL)

	stdout, _, code := execute(t, "--exit-zero", audio)
	assert.Zero(t, code)
	assert.Equal(t, "{\"error\":\"file not found\"}\n", stdout)
}

func TestDashLeadingPathAfterDoubleDash(t *testing.T) {
	clearEnv(t)
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.Write([]byte(`{"matches":[]}`))
	}))
	defer srv.Close()

	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("-clip.mp3", []byte("dash audio"), 0o644))

	stdout, _, code := execute(t, "--backend", "remote", "--service-url", srv.URL, "--", "-clip.mp3")
	assert.Zero(t, code)
	assert.Equal(t, "{\"matches\":[]}\n", stdout)
	assert.Equal(t, "dash audio", string(<-bodies))
}

func TestDashLeadingPathWithoutDoubleDash(t *testing.T) {
	clearEnv(t)

	stdout, _, code := execute(t, "-clip.mp3")
	assert.Equal(t, 1, code)
	assert.NotContains(t, stdout, "No file path provided")
	assert.Contains(t, stdout, "unknown shorthand flag")
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
}

func TestHelpDocumentsDoubleDash(t *testing.T) {
	clearEnv(t)

	_, stderr, _ := execute(t, "--help")
	assert.Contains(t, stderr, "recognize -- -clip.mp3")
	assert.NotContains(t, stderr, "-c, --config")
}
