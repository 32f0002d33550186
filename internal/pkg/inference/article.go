package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxTranscriptChars bounds the prompt size sent to the text model.
const maxTranscriptChars = 4000

const instructionDelimiter = "[/INST]"

type generationParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

func buildArticlePrompt(transcript string) string {
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}
	prompt := "You are a professional content writer. Based on the following transcript, " +
		"create a well-structured article with headings, subheadings, and paragraphs. " +
		"Make it engaging, informative, and easy to read. Add a compelling title at the top.\n\n" +
		"Transcript: " + transcript
	return "<s>[INST] " + prompt + " " + instructionDelimiter
}

// extractArticle keeps only the text after the final instruction delimiter.
func extractArticle(generated string) string {
	if idx := strings.LastIndex(generated, instructionDelimiter); idx >= 0 {
		return strings.TrimSpace(generated[idx+len(instructionDelimiter):])
	}
	return generated
}

// GenerateArticle asks the hosted text model to turn a transcript into a
// structured article. The transcript is truncated to a fixed character budget
// before the prompt is built; sampling parameters are fixed.
func (c *Client) GenerateArticle(ctx context.Context, transcript string, sink ProgressFunc) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("article generation: api key required")
	}
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("article generation: transcript required")
	}

	body, err := json.Marshal(generationRequest{
		Inputs: buildArticlePrompt(transcript),
		Parameters: generationParameters{
			MaxNewTokens: 2000,
			Temperature:  0.7,
			TopP:         0.9,
			DoSample:     true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("article generation: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(mistralModel), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("article generation: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	est := startEstimator(sink)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		est.Finish(false)
		return "", fmt.Errorf("article generation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		est.Finish(false)
		io.Copy(io.Discard, resp.Body)
		return "", statusError("article generation", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		est.Finish(false)
		return "", fmt.Errorf("article generation: read response: %w", err)
	}

	// The endpoint returns either a single object or a one-element array.
	var single generationResponse
	if err := json.Unmarshal(raw, &single); err != nil || single.GeneratedText == "" {
		var many []generationResponse
		if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
			single = many[0]
		}
	}
	if single.GeneratedText == "" {
		est.Finish(false)
		return "", errors.New("article generation: empty response")
	}

	est.Finish(true)
	return extractArticle(single.GeneratedText), nil
}
