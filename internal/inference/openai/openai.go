package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/vbonduro/flipcheck/internal/inference"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	api   *goopenai.Client
	model string
}

func NewClient(apiKey, model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		api:   goopenai.NewClientWithConfig(cfg),
		model: model,
	}
}

// buildMessages constructs the system and user messages. A request with an
// image sends the label and a base64 data URL as two content parts.
func buildMessages(req inference.Request) []goopenai.ChatCompletionMessage {
	msgs := []goopenai.ChatCompletionMessage{{Role: goopenai.ChatMessageRoleSystem, Content: req.System}}
	if !req.HasImage() {
		return append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Text})
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))
	return append(msgs, goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.Text},
			{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL}},
		},
	})
}

func (c *Client) Complete(ctx context.Context, req inference.Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", inference.Wrap("openai", fmt.Errorf("failed to call openai: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", inference.Wrap("openai", errors.New("response has no choices"))
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", inference.Wrap("openai", errors.New("empty completion"))
	}
	return text, nil
}
