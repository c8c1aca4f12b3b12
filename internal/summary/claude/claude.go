package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/summary"
)

// maxTokens bounds a five-sentence summary with generous headroom.
const maxTokens = 1024

type ClaudeSummarizer struct {
	client *anthropic.Client
	model  string
}

func NewClaudeSummarizer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeSummarizer {
	return &ClaudeSummarizer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeSummarizer) Summarize(ctx context.Context, tpl *domain.Template, sess *domain.Session) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(summary.BuildPrompt(tpl, sess)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			if text := strings.TrimSpace(content.GetText()); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("claude returned no text content")
}
