package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/flipcheck/internal/inference"
)

type Client struct {
	model  string
	client *anthropic.Client
}

// NewClient returns a Claude backend. opts are passed through to the SDK,
// which lets tests point it at an httptest server with anthropic.WithBaseURL.
func NewClient(apiKey, model string, opts ...anthropic.ClientOption) *Client {
	return &Client{
		model:  model,
		client: anthropic.NewClient(apiKey, opts...),
	}
}

// buildMessages puts the image block before the text label, which is the
// order Anthropic recommends for vision prompts.
func buildMessages(req inference.Request) []anthropic.Message {
	var content []anthropic.MessageContent
	if req.HasImage() {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				req.MIMEType,
				base64.StdEncoding.EncodeToString(req.Image),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Text))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (c *Client) Complete(ctx context.Context, req inference.Request) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    req.System,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", inference.Wrap("claude", fmt.Errorf("failed to call claude: %w", err))
	}

	for _, blk := range resp.Content {
		if blk.Type != anthropic.MessagesContentTypeText {
			continue
		}
		if text := blk.GetText(); strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", inference.Wrap("claude", errors.New("response has no text content"))
}
