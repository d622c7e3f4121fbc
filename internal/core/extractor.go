package core

import "context"

// TextLayerReader pulls the embedded text layer out of a PDF.
type TextLayerReader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

// RemoteFile is a file fetched from a cloud drive.
type RemoteFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// RemoteFetcher downloads a file by id on behalf of the bearer of accessToken.
// Any non-success response is reported as ErrUpstreamFetch.
type RemoteFetcher interface {
	Fetch(ctx context.Context, fileID, accessToken string) (*RemoteFile, error)
}
