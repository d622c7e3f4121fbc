// Package extraction asks a vision model for the text and a title of an
// uploaded file.
//
// Titles are resolved in tiers, each tried only when the previous one came
// back blank or as a sentinel ("untitled", "none"):
//
//  1. the title field of the structured JSON reply
//  2. one plain-text re-ask for just a title
//  3. the first usable line of the extracted text
//  4. NoTextTitle
//
// Extract never returns an error. A failed call or an unparseable reply
// yields FailedTitle with empty text.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Docshelf/internal/core"
)

const (
	structuredSystemPrompt = "Extract all text from the image and create a short (3-8 words) descriptive title. " +
		`Reply in JSON: {"title":"...","text":"..."}, no 'Untitled'.`
	structuredUserPrompt = "Return JSON with title and text."
	reaskSystemPrompt    = "Give only a short (3-8 words) descriptive title."
	reaskMaxTokens       = 40

	pdfMIME = "application/pdf"
)

// Outcome says how much of the extraction went as planned.
type Outcome int

const (
	OutcomeSuccess  Outcome = iota // the structured reply carried a usable title
	OutcomeDegraded                // a fallback tier produced the title
	OutcomeFailed                  // the attempt failed; placeholder title, no text
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	default:
		return "failed"
	}
}

// Tier identifies the step that produced Result.Title.
type Tier int

const (
	TierStructured Tier = iota + 1
	TierReask
	TierDerived
	TierPlaceholder
	TierFailure
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierReask:
		return "reask"
	case TierDerived:
		return "derived"
	case TierPlaceholder:
		return "placeholder"
	default:
		return "failure"
	}
}

// Result is the resolved title and text of one file.
type Result struct {
	Title   string
	Text    string
	Tier    Tier
	Outcome Outcome
	Err     error // set when Outcome is OutcomeFailed
}

type reply struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Client resolves titles and text through a VisionModel.
type Client struct {
	model core.VisionModel
	pdf   core.TextLayerReader
	log   zerolog.Logger
}

// NewClient builds a Client. pdf may be nil, in which case PDFs are sent to
// the model as inline documents.
func NewClient(model core.VisionModel, pdf core.TextLayerReader, log zerolog.Logger) *Client {
	return &Client{model: model, pdf: pdf, log: log}
}

// Extract resolves a title and the visible text of data.
func (c *Client) Extract(ctx context.Context, data []byte, filename string) Result {
	res, err := c.extract(ctx, data)
	if err != nil {
		c.log.Error().Err(err).Str("file", filename).Msg("AI processing failed")
		return Result{Title: FailedTitle, Tier: TierFailure, Outcome: OutcomeFailed, Err: err}
	}
	return res
}

func (c *Client) extract(ctx context.Context, data []byte) (Result, error) {
	req, err := c.baseRequest(ctx, data)
	if err != nil {
		return Result{}, err
	}

	structured := req
	structured.SystemPrompt = structuredSystemPrompt
	structured.UserPrompt = structuredUserPrompt
	if req.UserPrompt != "" {
		structured.UserPrompt += "\n\n" + req.UserPrompt
	}
	raw, err := c.model.Complete(ctx, structured)
	if err != nil {
		return Result{}, fmt.Errorf("structured request: %w", err)
	}
	parsed, err := parseReply(raw)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Title:   strings.TrimSpace(parsed.Title),
		Text:    strings.TrimSpace(parsed.Text),
		Tier:    TierStructured,
		Outcome: OutcomeSuccess,
	}
	if !unusable(res.Title) {
		return res, nil
	}

	res.Outcome = OutcomeDegraded
	reask := req
	reask.SystemPrompt = reaskSystemPrompt
	reask.MaxTokens = reaskMaxTokens
	raw, err = c.model.Complete(ctx, reask)
	if err != nil {
		return Result{}, fmt.Errorf("title request: %w", err)
	}
	res.Title, res.Tier = stripFence(raw), TierReask
	if !unusable(res.Title) {
		return res, nil
	}

	if t, ok := titleFromText(res.Text); ok {
		res.Title, res.Tier = t, TierDerived
		return res, nil
	}
	res.Title, res.Tier = NoTextTitle, TierPlaceholder
	return res, nil
}

// baseRequest carries the file itself: the image inline, or for PDFs the
// text layer in the prompt when one can be read.
func (c *Client) baseRequest(ctx context.Context, data []byte) (core.VisionRequest, error) {
	if len(data) == 0 {
		return core.VisionRequest{}, errors.New("empty file")
	}
	mime := mimetype.Detect(data).String()
	if mime == pdfMIME && c.pdf != nil {
		text, err := c.pdf.ReadText(ctx, data)
		if err != nil {
			return core.VisionRequest{}, fmt.Errorf("read pdf text: %w", err)
		}
		if strings.TrimSpace(text) != "" {
			return core.VisionRequest{UserPrompt: "Document text:\n" + text}, nil
		}
	}
	return core.VisionRequest{Image: data, MIMEType: mime}, nil
}

// parseReply decodes the model's JSON, recovering the first balanced object
// when the reply has prose or fences around it. A reply without any object is
// an empty result, not an error.
func parseReply(raw string) (reply, error) {
	s := stripFence(raw)
	var r reply
	if err := json.Unmarshal([]byte(s), &r); err == nil {
		return r, nil
	}
	obj, ok := firstObject(s)
	if !ok {
		return reply{}, nil
	}
	var recovered reply
	if err := json.Unmarshal([]byte(obj), &recovered); err != nil {
		return reply{}, fmt.Errorf("parse model reply: %w", err)
	}
	return recovered, nil
}
