package inference

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"

	// Fixed model identifiers; the endpoints are opaque hosted services.
	whisperModel = "openai/whisper-large-v3-turbo"
	mistralModel = "mistralai/Mistral-7B-Instruct-v0.2"

	defaultHTTPTimeout = 5 * time.Minute
)

const keyPrefix = "hf_"

// Client wraps the Hugging Face inference API for the two hosted models this
// application uses: speech-to-text and article generation.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the inference client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient constructs an inference API client for a user-supplied key.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) modelURL(model string) string {
	return c.baseURL + "/models/" + model
}

// ValidKeyFormat checks the key shape locally: Hugging Face keys start with
// "hf_" and are longer than 10 characters. Callers must reject keys failing
// this check before any network call.
func ValidKeyFormat(key string) bool {
	key = strings.TrimSpace(key)
	return strings.HasPrefix(key, keyPrefix) && len(key) > 10
}

// statusError preserves the provider's status text so it can be surfaced to
// the user verbatim.
func statusError(op string, resp *http.Response) error {
	return fmt.Errorf("%s failed: %s", op, resp.Status)
}
