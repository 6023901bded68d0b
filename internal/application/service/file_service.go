package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
	"github.com/garyjia/drivehub/pkg/utils"
)

// FileService lists, uploads, renames, and deletes objects through the
// default store.
type FileService interface {
	List(ctx context.Context, index int) ([]*entity.StoredObject, error)
	ListDetailed(ctx context.Context, index int) ([]*entity.StoredObject, error)
	Upload(ctx context.Context, index int, name, mimeType string, content io.Reader) (*entity.StoredObject, error)
	UploadFromURL(ctx context.Context, index int, rawURL string) (*entity.StoredObject, error)
	Rename(ctx context.Context, objectID, name string) error
	Delete(ctx context.Context, objectID string) error
	DeleteMany(ctx context.Context, objectIDs []string) *entity.DeleteSummary
	EmptyTrash(ctx context.Context) error
	ExportListing(ctx context.Context, index int) (*ListingExport, error)
}

// ListingExport is a rendered admin listing ready to be downloaded
type ListingExport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FileServiceConfig holds FileService tuning
type FileServiceConfig struct {
	// DeleteConcurrency bounds the batch delete fan-out; 0 means GOMAXPROCS.
	DeleteConcurrency int
}

type fileServiceImpl struct {
	resolver *AccountResolver
	store    port.ObjectStore
	fetcher  port.URLFetcher
	reporter port.ListingReporter
	config   FileServiceConfig
	logger   Logger
	now      func() time.Time
}

// NewFileService creates a new FileService
func NewFileService(
	resolver *AccountResolver,
	store port.ObjectStore,
	fetcher port.URLFetcher,
	reporter port.ListingReporter,
	config FileServiceConfig,
	logger Logger,
) FileService {
	// a negative bound makes the mapper start no workers at all
	if config.DeleteConcurrency < 0 {
		config.DeleteConcurrency = 0
	}
	return &fileServiceImpl{
		resolver: resolver,
		store:    store,
		fetcher:  fetcher,
		reporter: reporter,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the newest public-facing objects of an account's folder
func (s *fileServiceImpl) List(ctx context.Context, index int) ([]*entity.StoredObject, error) {
	return s.listFolder(ctx, index, entity.PublicListLimit)
}

// ListDetailed returns up to AdminListLimit objects for the admin view
func (s *fileServiceImpl) ListDetailed(ctx context.Context, index int) ([]*entity.StoredObject, error) {
	return s.listFolder(ctx, index, entity.AdminListLimit)
}

func (s *fileServiceImpl) listFolder(ctx context.Context, index, limit int) ([]*entity.StoredObject, error) {
	account := s.resolver.Resolve(index)

	page, err := s.store.List(ctx, port.ListQuery{
		ContainerID: account.FolderID,
		PageSize:    limit,
		NewestFirst: true,
	})
	if err != nil {
		return nil, err
	}
	return page.Objects, nil
}

// Upload creates the object in the account's folder and shares it publicly
func (s *fileServiceImpl) Upload(ctx context.Context, index int, name, mimeType string, content io.Reader) (*entity.StoredObject, error) {
	account := s.resolver.Resolve(index)

	obj, err := s.store.Create(ctx, port.NewObject{
		Name:        name,
		ContainerID: account.FolderID,
		MimeType:    mimeType,
	}, content)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetPublicRead(ctx, obj.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Object uploaded",
		"object_id", obj.ID,
		"name", obj.Name,
		"account", account.Index)

	return obj, nil
}

// UploadFromURL streams a remote URL into the account's folder
func (s *fileServiceImpl) UploadFromURL(ctx context.Context, index int, rawURL string) (*entity.StoredObject, error) {
	remote, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer remote.Body.Close()

	name := utils.FileNameFromURL(rawURL, s.now())
	return s.Upload(ctx, index, name, remote.ContentType, remote.Body)
}

// Rename changes an object's display name
func (s *fileServiceImpl) Rename(ctx context.Context, objectID, name string) error {
	return s.store.Rename(ctx, objectID, name)
}

// Delete removes one object by id
func (s *fileServiceImpl) Delete(ctx context.Context, objectID string) error {
	return s.store.Delete(ctx, objectID)
}

// DeleteMany deletes every id concurrently. Each failure is recorded in its
// slot of the result; the batch never stops early.
func (s *fileServiceImpl) DeleteMany(ctx context.Context, objectIDs []string) *entity.DeleteSummary {
	mapper := iter.Mapper[string, entity.DeleteResult]{MaxGoroutines: s.config.DeleteConcurrency}

	results := mapper.Map(objectIDs, func(id *string) entity.DeleteResult {
		err := s.store.Delete(ctx, *id)
		if err != nil {
			s.logger.Warn("Failed to delete object", "object_id", *id, "error", err)
		}
		return entity.DeleteResult{ID: *id, Err: err}
	})

	summary := entity.NewDeleteSummary(results)
	s.logger.Info("Batch delete finished",
		"requested", len(objectIDs),
		"deleted", summary.Deleted,
		"failed", summary.Failed)

	return summary
}

// EmptyTrash empties the trash of the default store's account
func (s *fileServiceImpl) EmptyTrash(ctx context.Context) error {
	return s.store.EmptyTrash(ctx)
}

// ExportListing renders the admin listing of an account as a document
func (s *fileServiceImpl) ExportListing(ctx context.Context, index int) (*ListingExport, error) {
	objects, err := s.ListDetailed(ctx, index)
	if err != nil {
		return nil, err
	}

	account := s.resolver.Resolve(index)
	data, err := s.reporter.Render(account.Name, objects)
	if err != nil {
		return nil, fmt.Errorf("failed to render listing: %w", err)
	}

	return &ListingExport{
		FileName:    fmt.Sprintf("files-%d-%s%s", account.Index, s.now().Format("20060102-150405"), s.reporter.Extension()),
		ContentType: s.reporter.ContentType(),
		Data:        data,
	}, nil
}
