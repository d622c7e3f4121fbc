package core

import "context"

// VisionRequest is one prompt to a vision-capable model. Image is optional;
// when empty the request is text only.
type VisionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Image        []byte
	MIMEType     string
	MaxTokens    int
}

// VisionModel sends a single request and returns the model's raw text reply.
type VisionModel interface {
	Complete(ctx context.Context, req VisionRequest) (string, error)
}
