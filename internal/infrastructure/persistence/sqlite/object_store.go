// Package sqlite provides a local, single-file object store used in place of
// Google Drive for offline development.
package sqlite

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
	"github.com/garyjia/drivehub/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const defaultPageSize = 100

var (
	// ErrNotFound is returned for unknown object ids
	ErrNotFound = errors.New("object not found")
	// ErrNotPublic is returned when serving an object that was never shared
	ErrNotPublic = errors.New("object is not shared")
	// ErrTooLarge is returned when content exceeds the configured limit
	ErrTooLarge = errors.New("object exceeds storage limit")
)

// Config holds local store settings
type Config struct {
	Path          string
	Limit         int64
	PublicBaseURL string
}

// ObjectStore implements port.ObjectStore and port.ContentReader on SQLite
type ObjectStore struct {
	db      *database.DB
	limit   int64
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// Open opens the database at cfg.Path and applies the embedded schema
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*ObjectStore, error) {
	db, err := database.New(database.Config{Path: cfg.Path, MaxOpenConns: 1}, logger)
	if err != nil {
		return nil, err
	}

	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations); err != nil {
		db.Close()
		return nil, err
	}

	return &ObjectStore{
		db:      db,
		limit:   cfg.Limit,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Close closes the underlying database
func (s *ObjectStore) Close() error {
	return s.db.Close()
}

// List returns one page of objects in a container. Page tokens are offsets.
func (s *ObjectStore) List(ctx context.Context, query port.ListQuery) (*port.ObjectPage, error) {
	offset := 0
	if query.PageToken != "" {
		n, err := strconv.Atoi(query.PageToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid page token: %q", query.PageToken)
		}
		offset = n
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	order := "created_at ASC, rowid ASC"
	if query.NewestFirst {
		order = "created_at DESC, rowid DESC"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, container_id, mime_type, size, md5, public, created_at
		FROM objects
		WHERE container_id = ?
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		query.ContainerID, pageSize+1, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	defer rows.Close()

	page := &port.ObjectPage{Objects: make([]*entity.StoredObject, 0, pageSize)}
	for rows.Next() {
		obj, err := s.scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		page.Objects = append(page.Objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	if len(page.Objects) > pageSize {
		page.Objects = page.Objects[:pageSize]
		page.NextPageToken = strconv.Itoa(offset + pageSize)
	}
	return page, nil
}

// Create stores content as a new object
func (s *ObjectStore) Create(ctx context.Context, obj port.NewObject, content io.Reader) (*entity.StoredObject, error) {
	// content is buffered in memory, so it is never read past the limit
	if s.limit > 0 {
		content = io.LimitReader(content, s.limit+1)
	}

	var buf bytes.Buffer
	hash := md5.New()
	size, err := io.Copy(io.MultiWriter(&buf, hash), content)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if s.limit > 0 && size > s.limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.limit)
	}

	created := &entity.StoredObject{
		ID:          uuid.NewString(),
		Name:        obj.Name,
		Size:        size,
		CreatedTime: s.now().UTC(),
		MimeType:    obj.MimeType,
		MD5Checksum: hex.EncodeToString(hash.Sum(nil)),
		Parents:     []string{obj.ContainerID},
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO objects (id, name, container_id, mime_type, size, md5, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, obj.ContainerID, created.MimeType,
		created.Size, created.MD5Checksum, buf.Bytes(), created.CreatedTime.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}

	s.fillLinks(created)
	return created, nil
}

// SetPublicRead marks an object as servable through its links
func (s *ObjectStore) SetPublicRead(ctx context.Context, objectID string) error {
	return s.updateOne(ctx, "UPDATE objects SET public = 1 WHERE id = ?", objectID)
}

// Rename changes an object's name
func (s *ObjectStore) Rename(ctx context.Context, objectID, name string) error {
	return s.updateOne(ctx, "UPDATE objects SET name = ? WHERE id = ?", name, objectID)
}

// Delete removes an object permanently
func (s *ObjectStore) Delete(ctx context.Context, objectID string) error {
	return s.updateOne(ctx, "DELETE FROM objects WHERE id = ?", objectID)
}

// Quota reports the configured limit and the bytes currently stored
func (s *ObjectStore) Quota(ctx context.Context) (*entity.Quota, error) {
	var usage int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(size), 0) FROM objects").Scan(&usage); err != nil {
		return nil, fmt.Errorf("failed to compute usage: %w", err)
	}
	return &entity.Quota{Limit: s.limit, Usage: usage, UsageInDrive: usage}, nil
}

// EmptyTrash is a no-op: local deletes are permanent, so the trash is always empty
func (s *ObjectStore) EmptyTrash(ctx context.Context) error {
	s.logger.Debug("Local store has no trash to empty")
	return nil
}

// Open returns the content of a shared object. The caller must close the reader.
func (s *ObjectStore) Open(ctx context.Context, objectID string) (io.ReadCloser, *entity.StoredObject, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, container_id, mime_type, size, md5, public, created_at, content
		FROM objects WHERE id = ?`, objectID)

	var (
		obj       entity.StoredObject
		container string
		public    bool
		createdAt int64
		content   []byte
	)
	err := row.Scan(&obj.ID, &obj.Name, &container, &obj.MimeType, &obj.Size, &obj.MD5Checksum, &public, &createdAt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, objectID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object: %w", err)
	}
	if !public {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotPublic, objectID)
	}

	obj.Parents = []string{container}
	obj.CreatedTime = time.Unix(0, createdAt).UTC()
	s.fillLinks(&obj)
	return io.NopCloser(bytes.NewReader(content)), &obj, nil
}

func (s *ObjectStore) updateOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update object: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, args[len(args)-1])
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *ObjectStore) scanObject(row rowScanner) (*entity.StoredObject, error) {
	var (
		obj       entity.StoredObject
		container string
		public    bool
		createdAt int64
	)
	if err := row.Scan(&obj.ID, &obj.Name, &container, &obj.MimeType, &obj.Size, &obj.MD5Checksum, &public, &createdAt); err != nil {
		return nil, err
	}
	obj.Parents = []string{container}
	obj.CreatedTime = time.Unix(0, createdAt).UTC()
	s.fillLinks(&obj)
	return &obj, nil
}

// fillLinks points the object's links at the HTTP server's /objects route
func (s *ObjectStore) fillLinks(obj *entity.StoredObject) {
	link := s.baseURL + "/objects/" + obj.ID
	obj.WebViewLink = link
	obj.WebContentLink = link + "?download=1"
	if strings.HasPrefix(obj.MimeType, "image/") {
		obj.ThumbnailLink = link
	}
}

var (
	_ port.ObjectStore   = (*ObjectStore)(nil)
	_ port.ContentReader = (*ObjectStore)(nil)
)
