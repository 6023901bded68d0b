package port

import (
	"context"
	"io"

	"github.com/garyjia/drivehub/internal/domain/entity"
)

// ListQuery selects one page of objects inside a container
type ListQuery struct {
	ContainerID string
	PageToken   string
	PageSize    int
	NewestFirst bool
}

// ObjectPage is one page of a listing. NextPageToken is empty on the last page.
type ObjectPage struct {
	Objects       []*entity.StoredObject
	NextPageToken string
}

// NewObject describes an object to be created
type NewObject struct {
	Name        string
	ContainerID string
	MimeType    string
}

// ObjectStore defines the remote object-storage operations the facade depends on.
// A store is bound to one provider identity.
type ObjectStore interface {
	List(ctx context.Context, query ListQuery) (*ObjectPage, error)
	Create(ctx context.Context, obj NewObject, content io.Reader) (*entity.StoredObject, error)
	SetPublicRead(ctx context.Context, objectID string) error
	Rename(ctx context.Context, objectID, name string) error
	Delete(ctx context.Context, objectID string) error
	Quota(ctx context.Context) (*entity.Quota, error)
	EmptyTrash(ctx context.Context) error
}

// StoreFactory builds a store bound to the identity behind refreshToken.
// Every call performs its own token exchange; stores are not pooled.
type StoreFactory interface {
	NewStore(ctx context.Context, refreshToken string) (ObjectStore, error)
}

// ContentReader is implemented by stores that can serve object bytes themselves.
type ContentReader interface {
	Open(ctx context.Context, objectID string) (io.ReadCloser, *entity.StoredObject, error)
}
