package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidKeyFormat is returned before any network call when the key fails
// the local shape check.
var ErrInvalidKeyFormat = errors.New("invalid api key format: Hugging Face keys start with \"hf_\"")

// TestKey probes the speech-to-text endpoint with a trivial payload to verify
// the stored key. HTTP 200 and 400 both indicate a valid key (400 just means
// the probe payload is not real audio); anything else means the key is
// invalid or unauthorized.
func (c *Client) TestKey(ctx context.Context) error {
	if !ValidKeyFormat(c.apiKey) {
		return ErrInvalidKeyFormat
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(whisperModel),
		strings.NewReader(`{"inputs":"Test"}`))
	if err != nil {
		return fmt.Errorf("key test: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("key test: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusBadRequest {
		return nil
	}
	return fmt.Errorf("key test failed with status: %d", resp.StatusCode)
}
