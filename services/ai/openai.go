// Package aisvc streams chat completions from an OpenAI-compatible API.
package aisvc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/assistant"
)

const (
	completionsPath = "/chat/completions"
	dataPrefix      = "data:"
	doneMarker      = "[DONE]"
	maxLineSize     = 1 << 20
)

type (
	Client struct {
		http      *resty.Client
		apiKey    string
		model     string
		maxTokens int
	}

	completionRequest struct {
		Model               string              `json:"model"`
		Messages            []assistant.Message `json:"messages"`
		Stream              bool                `json:"stream"`
		MaxCompletionTokens int                 `json:"max_completion_tokens,omitempty"`
	}

	completionChunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}

	apiError struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
)

var _ assistant.Streamer = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(conf.AI.BaseURL, "/")).
			SetHeader("Accept", "text/event-stream").
			SetTimeout(5 * time.Minute),
		apiKey:    conf.AI.APIKey,
		model:     conf.AI.Model,
		maxTokens: conf.AI.MaxTokens,
	}
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

// Stream sends the conversation and calls onChunk with every non-empty content delta, in order.
// It stops at the end marker, at the end of the body, or when ctx is done.
func (c *Client) Stream(ctx context.Context, messages []assistant.Message, onChunk func(string) error) error {
	if !c.Enabled() {
		return assistant.ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(completionRequest{
			Model:               c.model,
			Messages:            messages,
			Stream:              true,
			MaxCompletionTokens: c.maxTokens,
		}).
		SetDoNotParseResponse(true).
		Post(completionsPath)
	if err != nil {
		return errors.Wrap(err, "requesting chat completion")
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return upstreamError(resp.StatusCode(), body)
	}
	return readEvents(body, onChunk)
}

func upstreamError(status int, body io.Reader) error {
	var apiErr apiError
	b, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error.Message != "" {
		return errors.Errorf("chat completion failed (%d): %s", status, apiErr.Error.Message)
	}
	return errors.Errorf("chat completion failed (%d)", status)
}

// readEvents parses a server-sent event stream of completion chunks.
func readEvents(body io.Reader, onChunk func(string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue // blank separators, comments and other fields
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if data == doneMarker {
			return nil
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return errors.Wrap(err, "decoding completion chunk")
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onChunk(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(scanner.Err(), "reading completion stream")
}
