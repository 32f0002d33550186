package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/vidscribe/VidScribe/internal/pkg/env"
)

const driveMediaEndpoint = "https://www.googleapis.com/drive/v3/files"

var drivePathPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)

// ErrUnsupportedURL is returned for anything that is not an http(s) URL.
var ErrUnsupportedURL = errors.New("only http and https video URLs are supported")

// ErrDriveKeyMissing is returned when a Drive share link is given but no API
// key is configured.
var ErrDriveKeyMissing = errors.New("google drive downloads require GOOGLE_DRIVE_API_KEY")

// Fetcher downloads remote videos into a local working directory.
type Fetcher struct {
	workDir    string
	httpClient *http.Client
	driveKey   func() string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithDriveKey replaces the Drive API key source.
func WithDriveKey(key func() string) Option {
	return func(f *Fetcher) {
		f.driveKey = key
	}
}

// NewFetcher creates a fetcher that stores downloads under workDir. The Drive
// API key is read from the environment at request time so key rotation does
// not need a restart.
func NewFetcher(workDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		workDir:    workDir,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		driveKey:   func() string { return env.GetEnv("GOOGLE_DRIVE_API_KEY", "") },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download fetches the video behind rawURL into the working directory and
// returns the local path. Google Drive share links are rewritten to the Drive
// v3 media endpoint; everything else is fetched as-is.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid video url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrUnsupportedURL
	}
	if parsed.Host == "" {
		return "", ErrUnsupportedURL
	}

	fetchURL := parsed.String()
	fileName := remoteFileName(parsed)

	if fileID, ok := driveFileID(parsed); ok {
		key := f.driveKey()
		if key == "" {
			return "", ErrDriveKeyMissing
		}
		fetchURL = fmt.Sprintf("%s/%s?alt=media&key=%s", driveMediaEndpoint, fileID, url.QueryEscape(key))
		fileName = fileID + ".mp4"
		log.Infof("[Fetch] Resolving Google Drive file %s", fileID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", fmt.Errorf("video download: build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("video download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("video download failed with status: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return "", fmt.Errorf("video download: workspace: %w", err)
	}

	localPath := filepath.Join(f.workDir, uuid.NewString()+"_"+fileName)
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("video download: create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("video download: %w", err)
	}
	if closeErr != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("video download: flush file: %w", closeErr)
	}

	log.Infof("[Fetch] Downloaded %s (%d bytes)", fileName, written)
	return localPath, nil
}

// driveFileID extracts the file ID from a Google Drive share link such as
// https://drive.google.com/file/d/<id>/view.
func driveFileID(u *url.URL) (string, bool) {
	if !strings.HasSuffix(u.Hostname(), "drive.google.com") {
		return "", false
	}
	m := drivePathPattern.FindStringSubmatch(u.Path)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// remoteFileName derives a safe local file name from the URL path.
func remoteFileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "video.mp4"
	}
	return filepath.Base(name)
}
