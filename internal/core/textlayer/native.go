// Package textlayer reads the embedded text of PDF uploads so the model can
// title them without rasterizing pages.
package textlayer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/Docshelf/internal/core"
)

// maxTextBytes bounds how much text is forwarded to the model.
const maxTextBytes = 64 << 10

var _ core.TextLayerReader = (*NativeReader)(nil)

// NativeReader reads PDFs in process with ledongthuc/pdf.
type NativeReader struct{}

func NewNativeReader() *NativeReader { return &NativeReader{} }

func (NativeReader) ReadText(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(io.LimitReader(plain, maxTextBytes))
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	return compactLines(string(b)), nil
}

// New selects a reader by engine name: "docconv" or anything else for the
// native reader.
func New(engine string) core.TextLayerReader {
	if engine == "docconv" {
		return NewDocconvReader(false)
	}
	return NewNativeReader()
}
