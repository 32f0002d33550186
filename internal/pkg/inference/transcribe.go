package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio bytes to the hosted speech-to-text model and
// returns the transcript. While the call is in flight a synthetic progress
// estimate is emitted via sink, since the endpoint reports none.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, sink ProgressFunc) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("transcription: api key required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(whisperModel), audio)
	if err != nil {
		return "", fmt.Errorf("transcription: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "audio/mpeg")

	est := startEstimator(sink)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		est.Finish(false)
		return "", fmt.Errorf("transcription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		est.Finish(false)
		io.Copy(io.Discard, resp.Body)
		return "", statusError("transcription", resp)
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		est.Finish(false)
		return "", fmt.Errorf("transcription: decode response: %w", err)
	}

	est.Finish(true)
	return result.Text, nil
}
