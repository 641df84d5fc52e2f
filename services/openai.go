package services

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Per-operation wall-clock deadlines and output budgets.
const (
	singleCallDeadline = 20 * time.Second
	batchItemDeadline  = 15 * time.Second
	chatCallDeadline   = 25 * time.Second

	generationMaxTokens = 1200
	evaluationMaxTokens = 1200
	synthesisMaxTokens  = 900
	chatMaxTokens       = 700
)

// CompletionMessage is one chat message sent to the provider.
type CompletionMessage struct {
	Role    string
	Content string
}

// CompletionOptions bound a single completion call.
type CompletionOptions struct {
	Deadline    time.Duration
	MaxTokens   int
	Temperature float32
	// Fallback is returned in place of empty content on a successful call, so
	// callers never see an empty string from a nominal success.
	Fallback string
}

// Completer submits one prompt to the text-completion provider and classifies
// the outcome: success, ErrTimedOut, *QuotaError, or *ProviderError.
type Completer interface {
	Complete(ctx context.Context, messages []CompletionMessage, opts CompletionOptions) (string, error)
}

// OpenAIGateway wraps the OpenAI chat completion API with deadline and
// failure classification handling.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAIGateway builds the gateway. With an empty API key the gateway is
// still returned but every call fails with ErrNotConfigured.
func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	gw := &OpenAIGateway{model: model}
	if apiKey != "" {
		gw.client = openai.NewClient(apiKey)
	}
	return gw
}

// Complete races the provider call against the deadline. On timeout the call
// is not cancelled at the network layer; the orchestration simply stops
// waiting and a late response is dropped into the buffered channel.
func (g *OpenAIGateway) Complete(ctx context.Context, messages []CompletionMessage, opts CompletionOptions) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := g.client.CreateChatCompletion(context.Background(), req)
		if err != nil {
			done <- outcome{err: classifyProviderError(err)}
			return
		}
		text := ""
		if len(resp.Choices) > 0 {
			text = strings.TrimSpace(resp.Choices[0].Message.Content)
		}
		done <- outcome{text: text}
	}()

	timer := time.NewTimer(opts.Deadline)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return "", out.err
		}
		if out.text == "" {
			return opts.Fallback, nil
		}
		return out.text, nil
	case <-timer.C:
		return "", ErrTimedOut
	case <-ctx.Done():
		return "", ErrTimedOut
	}
}

// classifyProviderError sorts a provider failure into the quota or generic
// class. Quota is signaled by HTTP 429 or quota/billing wording in the message.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		lower := strings.ToLower(msg)
		if apiErr.HTTPStatusCode == 429 || strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return &QuotaError{Message: msg}
		}
		return &ProviderError{Message: msg}
	}
	return &ProviderError{Message: err.Error()}
}
