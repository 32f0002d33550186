package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveFileID(t *testing.T) {
	tests := []struct {
		rawURL string
		wantID string
		wantOK bool
	}{
		{rawURL: "https://drive.google.com/file/d/1AbC_dE-f9/view?usp=sharing", wantID: "1AbC_dE-f9", wantOK: true},
		{rawURL: "https://drive.google.com/file/d/xyz123", wantID: "xyz123", wantOK: true},
		{rawURL: "https://drive.google.com/drive/folders/abc", wantOK: false},
		{rawURL: "https://example.com/file/d/abc/view", wantOK: false},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.rawURL)
		require.NoError(t, err)
		id, ok := driveFileID(u)
		assert.Equal(t, tt.wantOK, ok, tt.rawURL)
		if tt.wantOK {
			assert.Equal(t, tt.wantID, id, tt.rawURL)
		}
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	localPath, err := f.Download(context.Background(), srv.URL+"/clips/talk.mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
	assert.Contains(t, localPath, "talk.mp4")
}

func TestDownloadRejectsBadScheme(t *testing.T) {
	f := NewFetcher(t.TempDir())

	_, err := f.Download(context.Background(), "ftp://example.com/a.mp4")
	assert.ErrorIs(t, err, ErrUnsupportedURL)

	_, err = f.Download(context.Background(), "not a url at all ://")
	assert.Error(t, err)
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := f.Download(context.Background(), srv.URL+"/missing.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDownloadDriveRequiresKey(t *testing.T) {
	f := NewFetcher(t.TempDir(), WithDriveKey(func() string { return "" }))
	_, err := f.Download(context.Background(), "https://drive.google.com/file/d/abc123/view")
	assert.ErrorIs(t, err, ErrDriveKeyMissing)
}
