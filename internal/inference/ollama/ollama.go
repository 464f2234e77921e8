package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/vbonduro/flipcheck/internal/inference"
)

type Client struct {
	api   *api.Client
	model string
}

func NewClient(host, model string) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &Client{
		api:   api.NewClient(base, &http.Client{}),
		model: model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, req inference.Request) (string, error) {
	user := api.Message{Role: "user", Content: req.Text}
	if req.HasImage() {
		user.Images = []api.ImageData{req.Image}
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "system", Content: req.System}, user},
		Stream:   &stream,
		Options:  map[string]interface{}{"num_predict": req.MaxTokens},
	}

	var out strings.Builder
	err := c.api.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", inference.Wrap("ollama", fmt.Errorf("failed to call ollama: %w", err))
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", inference.Wrap("ollama", errors.New("empty completion"))
	}
	return text, nil
}
