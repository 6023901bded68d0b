package port

import (
	"context"
	"io"

	"github.com/garyjia/drivehub/internal/domain/entity"
)

// RemoteFile is an open response body fetched from an arbitrary URL
type RemoteFile struct {
	Body        io.ReadCloser
	ContentType string
}

// URLFetcher opens a remote URL as a byte stream
type URLFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*RemoteFile, error)
}

// ListingReporter renders an object listing into a downloadable document
type ListingReporter interface {
	Render(title string, objects []*entity.StoredObject) ([]byte, error)
	ContentType() string
	Extension() string
}
