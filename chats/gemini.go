// Package chats proxies the platform assistant to a hosted chat model.
package chats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Completer answers one user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

var ErrNotConfigured = errors.New("chat assistant is not configured")

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
	prompt  Prompt
}

func NewGeminiClient(baseURL, model, apiKey string, prompt Prompt) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		prompt:  prompt,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction content   `json:"systemInstruction"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Complete(ctx context.Context, message string) (string, error) {
	const op = "chats.GeminiClient.Complete"

	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		SystemInstruction: content{Parts: []part{{Text: c.prompt.SystemInstruction()}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: message}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("%s: %s (%d)", op, out.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("%s: no candidates returned", op)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
