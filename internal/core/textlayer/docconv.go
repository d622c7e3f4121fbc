package textlayer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Docshelf/internal/core"
)

var _ core.TextLayerReader = (*DocconvReader)(nil)

// DocconvReader implements core.TextLayerReader using sajari/docconv, which
// shells out to poppler's pdftotext.
type DocconvReader struct {
	useReadability bool
}

func NewDocconvReader(useReadability bool) *DocconvReader {
	return &DocconvReader{useReadability: useReadability}
}

// ReadText returns the PDF's text with blank lines dropped.
func (e *DocconvReader) ReadText(ctx context.Context, data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return compactLines(res.Body), nil
}

func compactLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
