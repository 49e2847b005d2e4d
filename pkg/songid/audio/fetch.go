package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/songid/pkg/utils"
)

// FetchToTemp downloads rawURL into dir as rec_<unix-ms><ext> and returns the
// local path. The caller owns the file.
func FetchToTemp(ctx context.Context, client *http.Client, rawURL, dir string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if err := utils.MakeDir(dir); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %s", redact(rawURL), resp.Status)
	}

	dest := filepath.Join(dir, fmt.Sprintf("rec_%d%s", time.Now().UnixMilli(), extensionFor(rawURL)))
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func extensionFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".mp3"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 6 {
		return ".mp3"
	}
	return ext
}

// redact drops the path so bot tokens embedded in file URLs stay out of errors.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "remote file"
	}
	return u.Scheme + "://" + u.Host
}
