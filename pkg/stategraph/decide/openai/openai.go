// Package openai provides a router decision capability backed by the
// OpenAI Chat Completions API.
package openai

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/stategraph-io/stategraph/pkg/stategraph"
	"github.com/stategraph-io/stategraph/pkg/stategraph/decide"
)

// Options configure the OpenAI router capability.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Router creates a RouterFunc that asks the model to pick one label
// from the declared option set. The returned function never yields a
// label outside options; an unparseable reply is reported as an
// error.
func Router(options []string, optFns ...func(o *Options)) stategraph.RouterFunc {
	client := openai.NewClient()
	return RouterFromClient(&client, options, optFns...)
}

// RouterFromClient creates a RouterFunc from an existing client.
func RouterFromClient(client *openai.Client, options []string, optFns ...func(o *Options)) stategraph.RouterFunc {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.0,
		MaxCompletionTokens: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	labels := append([]string(nil), options...)
	system := decide.SystemPrompt(labels)

	return func(ctx stategraph.Context, snap stategraph.Snapshot) (string, error) {
		user, err := decide.UserPrompt(snap)
		if err != nil {
			return "", err
		}

		params := openai.ChatCompletionNewParams{
			Model:               opts.Model,
			Temperature:         openai.Float(opts.Temperature),
			MaxCompletionTokens: openai.Int(opts.MaxCompletionTokens),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
		}

		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openai api returned no choices")
		}

		return decide.ParseLabel(resp.Choices[0].Message.Content, labels)
	}
}
