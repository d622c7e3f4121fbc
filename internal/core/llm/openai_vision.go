package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/markdave123-py/Docshelf/internal/core"
)

// OpenAIVision talks to a chat completion model that accepts image parts.
type OpenAIVision struct {
	client *openai.Client
	model  string
}

// NewOpenAIVision builds the adapter. baseURL overrides the API endpoint and
// may be empty.
func NewOpenAIVision(apiKey, baseURL, model string) *OpenAIVision {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIVision{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAIVision) Complete(ctx context.Context, req core.VisionRequest) (string, error) {
	// Chat image parts only take images; a scanned PDF cannot be sent inline.
	if len(req.Image) > 0 && req.MIMEType != "" && !strings.HasPrefix(req.MIMEType, "image/") {
		return "", fmt.Errorf("openai vision: cannot send %s inline", req.MIMEType)
	}

	var msgs []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}

	var parts []openai.ChatMessagePart
	if req.UserPrompt != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: req.UserPrompt})
	}
	if len(req.Image) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(req.MIMEType, req.Image),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})

	// Temperature is omitempty, so a literal 0 would fall back to the
	// server default.
	oReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: math.SmallestNonzeroFloat32,
	}
	if req.MaxTokens > 0 {
		oReq.MaxTokens = req.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, oReq)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func dataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

var _ core.VisionModel = (*OpenAIVision)(nil)
