// Package aiclient wraps the chat-completion generation service.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type Role string

const (
	RoleSystem    Role = openai.ChatMessageRoleSystem
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Message is one turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Generator is the generation service as seen by the summary pipeline and
// the chat orchestrator.
type Generator interface {
	// Complete returns the whole completion at once.
	Complete(ctx context.Context, msgs []Message) (string, error)
	// Stream calls onDelta for every chunk and returns the accumulated text.
	// An error from onDelta aborts the stream.
	Stream(ctx context.Context, msgs []Message, onDelta func(chunk string) error) (string, error)
}

// AIClient talks to an OpenAI-compatible endpoint under {API_URL}/v1.
type AIClient struct {
	client *openai.Client
	model  string
	logger logrus.FieldLogger
}

// NewAIClient creates a client for the generation service at apiURL.
func NewAIClient(apiURL, apiKey, model string, logger logrus.FieldLogger) *AIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(apiURL, "/") + "/v1"
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AIClient{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}
}

func (c *AIClient) request(msgs []Message, stream bool) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return openai.ChatCompletionRequest{Model: c.model, Messages: out, Stream: stream}
}

func (c *AIClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(msgs, false))
	if err != nil {
		c.logger.WithFields(logrus.Fields{"model": c.model, "error": err}).Error("completion failed")
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("create chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *AIClient) Stream(ctx context.Context, msgs []Message, onDelta func(string) error) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(msgs, true))
	if err != nil {
		c.logger.WithFields(logrus.Fields{"model": c.model, "error": err}).Error("completion stream failed")
		return "", fmt.Errorf("create chat completion stream: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), fmt.Errorf("receive chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onDelta != nil {
			if err := onDelta(chunk); err != nil {
				return sb.String(), err
			}
		}
	}
}
