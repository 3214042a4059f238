// Package anthropic provides a router decision capability backed by
// the Anthropic Claude Messages API.
package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stategraph-io/stategraph/pkg/stategraph"
	"github.com/stategraph-io/stategraph/pkg/stategraph/decide"
)

// Options configures the Anthropic router capability (model id,
// temperature, max tokens, API key). Extend via functional options to
// preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Router creates a RouterFunc that asks Claude to pick one label from
// the declared option set. The returned function never yields a label
// outside options; an unparseable reply is reported as an error.
func Router(options []string, optFns ...func(o *Options)) stategraph.RouterFunc {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return router(&client, opts, options)
}

// RouterFromClient creates a RouterFunc from an existing client.
func RouterFromClient(client *anthropic.Client, options []string, optFns ...func(o *Options)) stategraph.RouterFunc {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return router(client, opts, options)
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   64,
	}
}

func router(client *anthropic.Client, opts Options, options []string) stategraph.RouterFunc {
	labels := append([]string(nil), options...)
	system := decide.SystemPrompt(labels)

	return func(ctx stategraph.Context, snap stategraph.Snapshot) (string, error) {
		user, err := decide.UserPrompt(snap)
		if err != nil {
			return "", err
		}

		params := anthropic.MessageNewParams{
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: anthropic.Float(opts.Temperature),
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		}

		resp, err := client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api error: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.AsText().Text)
			}
		}

		return decide.ParseLabel(sb.String(), labels)
	}
}
