package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "hf_0123456789abcdef"

func TestValidKeyFormat(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "hf_0123456789", want: true},
		{key: "  hf_0123456789  ", want: true},
		{key: "hf_short", want: false},
		{key: "sk_0123456789abc", want: false},
		{key: "", want: false},
	}

	for _, tt := range tests {
		if got := ValidKeyFormat(tt.key); got != tt.want {
			t.Fatalf("ValidKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestTranscribe(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	c := NewClient(testKey, WithBaseURL(srv.URL))
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio bytes"), nil)
	require.NoError(t, err)

	assert.Equal(t, "hello world", text)
	assert.Equal(t, "Bearer "+testKey, gotAuth)
	assert.Equal(t, "/models/openai/whisper-large-v3-turbo", gotPath)
	assert.Equal(t, "audio bytes", string(gotBody))
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testKey, WithBaseURL(srv.URL))
	_, err := c.Transcribe(context.Background(), strings.NewReader("x"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestGenerateArticle(t *testing.T) {
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode([]generationResponse{
			{GeneratedText: "<s>[INST] the prompt [/INST] # My Article\n\nBody text."},
		})
	}))
	defer srv.Close()

	c := NewClient(testKey, WithBaseURL(srv.URL))
	article, err := c.GenerateArticle(context.Background(), "we talked about things", nil)
	require.NoError(t, err)

	assert.Equal(t, "# My Article\n\nBody text.", article)
	assert.Contains(t, gotReq.Inputs, "we talked about things")
	assert.True(t, strings.HasPrefix(gotReq.Inputs, "<s>[INST] "))
	assert.True(t, strings.HasSuffix(gotReq.Inputs, "[/INST]"))
	assert.Equal(t, 2000, gotReq.Parameters.MaxNewTokens)
	assert.InDelta(t, 0.7, gotReq.Parameters.Temperature, 1e-9)
	assert.InDelta(t, 0.9, gotReq.Parameters.TopP, 1e-9)
	assert.True(t, gotReq.Parameters.DoSample)
}

func TestGenerateArticleTruncatesTranscript(t *testing.T) {
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generationResponse{GeneratedText: "[/INST] ok"})
	}))
	defer srv.Close()

	c := NewClient(testKey, WithBaseURL(srv.URL))
	long := strings.Repeat("a", 10000)
	_, err := c.GenerateArticle(context.Background(), long, nil)
	require.NoError(t, err)

	assert.Less(t, len(gotReq.Inputs), 4500, "transcript must be truncated to the character budget")
}

func TestGenerateArticleRequiresTranscript(t *testing.T) {
	c := NewClient(testKey)
	_, err := c.GenerateArticle(context.Background(), "   ", nil)
	require.Error(t, err)
}

func TestExtractArticle(t *testing.T) {
	assert.Equal(t, "body", extractArticle("<s>[INST] p [/INST] body"))
	assert.Equal(t, "raw output", extractArticle("raw output"))
	assert.Equal(t, "last", extractArticle("[INST] a [/INST] mid [INST] b [/INST] last"))
}

func TestTestKeyAcceptsOKAndBadRequest(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c := NewClient(testKey, WithBaseURL(srv.URL))
		assert.NoError(t, c.TestKey(context.Background()), "status %d", status)
		srv.Close()
	}
}

func TestTestKeyRejectsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testKey, WithBaseURL(srv.URL))
	err := c.TestKey(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTestKeyRejectsBadFormatLocally(t *testing.T) {
	// No server at all: a malformed key must fail before any network call.
	c := NewClient("not-a-real-key", WithBaseURL("http://127.0.0.1:0"))
	err := c.TestKey(context.Background())
	require.ErrorIs(t, err, ErrInvalidKeyFormat)
}
