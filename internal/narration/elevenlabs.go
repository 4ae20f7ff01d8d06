package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrRateLimited = errors.New("rate limited")

// APIError is a non-success answer from the voice provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("tts status %d", e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Synthesizer turns text into encoded speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (io.ReadCloser, error)
}

// ElevenLabs is the text-to-speech HTTP API client.
type ElevenLabs struct {
	BaseURL string
	APIKey  string
	ModelID string
	HTTP    *http.Client
}

func NewElevenLabs(baseURL, apiKey, modelID string, timeout time.Duration) *ElevenLabs {
	return &ElevenLabs{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		ModelID: modelID,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// rate limiting codes reported in the detail of a non-429 answer
var rateLimitCodes = map[string]bool{
	"quota_exceeded":               true,
	"too_many_concurrent_requests": true,
	"system_busy":                  true,
}

// Synthesize returns the MP3 body. Rate limits come back wrapping
// ErrRateLimited, any other failure as *APIError.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	payload, err := json.Marshal(ttsRequest{Text: text, ModelID: e.ModelID})
	if err != nil {
		return nil, err
	}

	endpoint := e.BaseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := parseError(resp.StatusCode, body)
	if resp.StatusCode == http.StatusTooManyRequests || rateLimitCodes[apiErr.Code] {
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
	}
	return nil, apiErr
}

// parseError reads {"detail": {"status": ..., "message": ...}} or
// {"detail": "..."}; anything else becomes the message verbatim.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	var detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Code, apiErr.Message = detail.Status, detail.Message
		return apiErr
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		apiErr.Message = text
		return apiErr
	}
	apiErr.Message = string(envelope.Detail)
	return apiErr
}
