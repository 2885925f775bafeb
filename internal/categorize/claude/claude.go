package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/larder/internal/categorize"
	"github.com/vbonduro/larder/internal/domain"
)

const categorizePrompt = `Which one of these grocery categories does the ingredient %q belong to?
Categories: %s.
Answer with the category name only. If none fits, answer "Unknown".`

// Categorizer asks Claude to place an ingredient in one of a fixed set of
// categories. Answers outside that set are treated as unknown.
type Categorizer struct {
	client     *anthropic.Client
	model      string
	categories []string
}

type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a different Messages API host.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func NewCategorizer(apiKey, model string, categories []string, opts ...Option) *Categorizer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var clientOpts []anthropic.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(o.baseURL))
	}
	return &Categorizer{
		client:     anthropic.NewClient(apiKey, clientOpts...),
		model:      model,
		categories: categories,
	}
}

func (c *Categorizer) Categorize(ctx context.Context, name string) (domain.Category, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(fmt.Sprintf(categorizePrompt, name, strings.Join(c.categories, ", "))),
		},
		// A category name is a single short word.
		MaxTokens: 16,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var answer string
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			answer = blk.GetText()
			break
		}
	}

	cat, ok := categorize.Match(answer, c.categories)
	if !ok {
		return "", &domain.UnknownCategoryError{Category: name}
	}
	return cat, nil
}
