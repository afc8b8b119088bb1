package main

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gopenai "github.com/sashabaranov/go-openai"
)

// fallbackReply stands in whenever the model call fails; callers never see
// an error from the responder.
const fallbackReply = "Keep up the great work! 💪"

type openAIResponder struct {
	client *gopenai.Client
	model  string
}

func NewOpenAIResponder(apiKey, model string) Responder {
	return &openAIResponder{
		client: gopenai.NewClient(apiKey),
		model:  model,
	}
}

func (r *openAIResponder) Reply(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: r.model,
		Messages: []gopenai.ChatCompletionMessage{
			{
				Role:    gopenai.ChatMessageRoleSystem,
				Content: "You are FocusPulse, an upbeat productivity assistant. Reply in one or two short sentences, no quotes.",
			},
			{
				Role:    gopenai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   80,
		Temperature: 0.7,
	})
	if err != nil {
		log.Warn("text generation failed, using fallback", "err", err)
		return fallbackReply
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallbackReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
