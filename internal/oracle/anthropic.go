package oracle

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-cli/pkg/anthropic"
)

// Anthropic completes prompts with the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an oracle backed by client.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Complete sends prompt as a single user message at temperature 0.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	temp := 0.0
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "oracle: anthropic completion")
	}
	resp.Usage.LogCost(a.model, "survey")
	return strings.TrimSpace(resp.Text()), nil
}
