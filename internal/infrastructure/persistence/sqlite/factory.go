package sqlite

import (
	"context"

	"github.com/garyjia/drivehub/internal/application/port"
)

// Factory hands out the single local store for every credential.
// The local provider has one shared namespace; refresh tokens are ignored.
type Factory struct {
	store *ObjectStore
}

// NewFactory creates a factory around an open store
func NewFactory(store *ObjectStore) *Factory {
	return &Factory{store: store}
}

// NewStore implements port.StoreFactory
func (f *Factory) NewStore(ctx context.Context, refreshToken string) (port.ObjectStore, error) {
	return f.store, nil
}

var _ port.StoreFactory = (*Factory)(nil)
