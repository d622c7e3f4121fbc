// Package drive fetches uploads from Google Drive with the caller's OAuth
// access token.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Docshelf/internal/core"
)

var _ core.RemoteFetcher = (*Fetcher)(nil)

// Fetcher downloads Drive files. It holds no credentials of its own; every
// Fetch builds a service for the supplied token.
type Fetcher struct {
	endpoint string
	maxBytes int64
}

// NewFetcher returns a Fetcher. endpoint overrides the Drive API base URL and
// may be empty; maxBytes caps the download size.
func NewFetcher(endpoint string, maxBytes int64) *Fetcher {
	return &Fetcher{endpoint: endpoint, maxBytes: maxBytes}
}

// Fetch reads the file's name with one call and its content with a second.
func (f *Fetcher) Fetch(ctx context.Context, fileID, accessToken string) (*core.RemoteFile, error) {
	if strings.TrimSpace(fileID) == "" || strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: file_id and access_token required", core.ErrValidation)
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})),
	}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	meta, err := svc.Files.Get(fileID).Fields("name", "mimeType").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, upstream("metadata", err)
	}

	resp, err := svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, upstream("content", err)
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, upstream("content", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", core.ErrValidation, f.maxBytes)
	}

	return &core.RemoteFile{Name: meta.Name, MIMEType: meta.MimeType, Data: data}, nil
}

func upstream(step string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%w: drive %s: status %d", core.ErrUpstreamFetch, step, gerr.Code)
	}
	return fmt.Errorf("%w: drive %s: %v", core.ErrUpstreamFetch, step, err)
}
