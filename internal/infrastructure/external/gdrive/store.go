package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

const (
	fileFields = "id, name, size, createdTime, mimeType, md5Checksum, thumbnailLink, webViewLink, webContentLink, parents"
	listFields = "nextPageToken, files(" + fileFields + ")"
)

var publicReader = &drive.Permission{Role: "reader", Type: "anyone"}

// Store implements port.ObjectStore on top of one Drive service
type Store struct {
	svc    *drive.Service
	logger *zap.Logger
}

// NewStore wraps an authenticated Drive service
func NewStore(svc *drive.Service, logger *zap.Logger) *Store {
	return &Store{svc: svc, logger: logger}
}

// List returns one page of non-trashed files whose parent is query.ContainerID
func (s *Store) List(ctx context.Context, query port.ListQuery) (*port.ObjectPage, error) {
	call := s.svc.Files.List().
		Q(parentQuery(query.ContainerID)).
		Fields(listFields).
		Context(ctx)
	if query.PageSize > 0 {
		call = call.PageSize(int64(query.PageSize))
	}
	if query.PageToken != "" {
		call = call.PageToken(query.PageToken)
	}
	if query.NewestFirst {
		call = call.OrderBy("createdTime desc")
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	page := &port.ObjectPage{
		Objects:       make([]*entity.StoredObject, 0, len(res.Files)),
		NextPageToken: res.NextPageToken,
	}
	for _, f := range res.Files {
		page.Objects = append(page.Objects, toStoredObject(f))
	}
	return page, nil
}

// Create uploads content as a new file inside obj.ContainerID
func (s *Store) Create(ctx context.Context, obj port.NewObject, content io.Reader) (*entity.StoredObject, error) {
	meta := &drive.File{
		Name:     obj.Name,
		MimeType: obj.MimeType,
		Parents:  []string{obj.ContainerID},
	}

	var mediaOpts []googleapi.MediaOption
	if obj.MimeType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(obj.MimeType))
	}

	created, err := s.svc.Files.Create(meta).
		Media(content, mediaOpts...).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s.logger.Debug("Drive file created",
		zap.String("file_id", created.Id),
		zap.String("name", created.Name))

	return toStoredObject(created), nil
}

// SetPublicRead grants "anyone with the link" reader access
func (s *Store) SetPublicRead(ctx context.Context, objectID string) error {
	if _, err := s.svc.Permissions.Create(objectID, publicReader).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to share file: %w", err)
	}
	return nil
}

// Rename updates the display name of a file
func (s *Store) Rename(ctx context.Context, objectID, name string) error {
	if _, err := s.svc.Files.Update(objectID, &drive.File{Name: name}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Delete permanently removes a file
func (s *Store) Delete(ctx context.Context, objectID string) error {
	if err := s.svc.Files.Delete(objectID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Quota reads the account-level storage quota
func (s *Store) Quota(ctx context.Context) (*entity.Quota, error) {
	about, err := s.svc.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage quota: %w", err)
	}

	quota := &entity.Quota{}
	if q := about.StorageQuota; q != nil {
		quota.Limit = q.Limit
		quota.Usage = q.Usage
		quota.UsageInDrive = q.UsageInDrive
	}
	return quota, nil
}

// EmptyTrash permanently deletes every trashed file of the account
func (s *Store) EmptyTrash(ctx context.Context) error {
	if err := s.svc.Files.EmptyTrash().Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to empty trash: %w", err)
	}
	return nil
}

// parentQuery builds the Drive search expression for a folder's live children
func parentQuery(folderID string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(folderID)
	return fmt.Sprintf("'%s' in parents and trashed = false", escaped)
}

func toStoredObject(f *drive.File) *entity.StoredObject {
	obj := &entity.StoredObject{
		ID:             f.Id,
		Name:           f.Name,
		Size:           f.Size,
		MimeType:       f.MimeType,
		MD5Checksum:    f.Md5Checksum,
		ThumbnailLink:  f.ThumbnailLink,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
		Parents:        f.Parents,
	}
	if f.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			obj.CreatedTime = t
		}
	}
	return obj
}

var _ port.ObjectStore = (*Store)(nil)
