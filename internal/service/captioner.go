package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prazwal-bns/imageprompt-api/internal/prompts"
)

// Captioner converts an image into descriptive prompt text. Failure
// categories are distinguished through the typed errors in errors.go.
type Captioner interface {
	Describe(ctx context.Context, imageData []byte, mimeType string) (string, error)
}

// OpenAICaptioner calls an OpenAI-compatible chat completions endpoint
// with the image attached as a data URL.
type OpenAICaptioner struct {
	client   *resty.Client
	model    string
	endpoint string
}

// CaptionerConfig holds configuration for the captioner client.
type CaptionerConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAICaptioner creates a captioner client. The timeout bounds the
// only unbounded-latency call in the system.
func NewOpenAICaptioner(cfg *CaptionerConfig) *OpenAICaptioner {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAICaptioner{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type chatTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatImageContent struct {
	Type     string       `json:"type"`
	ImageURL chatImageURL `json:"image_url"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Describe generates prompt text for an image. Outcomes:
//   - nil error: caption text returned
//   - ErrCaptionerRateLimited: upstream returned HTTP 429
//   - ErrCaptionerUnavailable: transport failure or timeout
//   - *CaptionerError: any other upstream failure
func (c *OpenAICaptioner) Describe(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: prompts.CaptionSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					chatTextContent{
						Type: "text",
						Text: prompts.CaptionUserPrompt,
					},
					chatImageContent{
						Type: "image_url",
						ImageURL: chatImageURL{
							URL:    dataURL,
							Detail: "auto",
						},
					},
				},
			},
		},
		MaxTokens: 300,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		// resty only errors here on transport-level failures
		return "", fmt.Errorf("%w: %v", ErrCaptionerUnavailable, err)
	}

	if httpResp.StatusCode() == http.StatusTooManyRequests {
		return "", ErrCaptionerRateLimited
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		msg := string(httpResp.Body())
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", &CaptionerError{StatusCode: httpResp.StatusCode(), Message: msg}
	}

	if resp.Error != nil {
		return "", &CaptionerError{Message: resp.Error.Message}
	}

	if len(resp.Choices) == 0 {
		return "", &CaptionerError{
			StatusCode: httpResp.StatusCode(),
			Message:    "no choices in response",
		}
	}

	return resp.Choices[0].Message.Content, nil
}
