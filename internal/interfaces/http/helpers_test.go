package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/application/service"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

const testPassword = "s3cret"

// memStore is an in-memory port.ObjectStore that counts every call
type memStore struct {
	mu      sync.Mutex
	objects map[string]*entity.StoredObject
	seq     int
	calls   int
	listErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]*entity.StoredObject)}
}

func (m *memStore) put(container, name string, size int64) *entity.StoredObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	obj := &entity.StoredObject{
		ID:          fmt.Sprintf("id-%d", m.seq),
		Name:        name,
		Size:        size,
		CreatedTime: time.Unix(int64(m.seq), 0),
		Parents:     []string{container},
		WebViewLink: fmt.Sprintf("https://drive.example/file/id-%d/view", m.seq),
	}
	m.objects[obj.ID] = obj
	return obj
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memStore) List(ctx context.Context, query port.ListQuery) (*port.ObjectPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var matched []*entity.StoredObject
	for _, obj := range m.objects {
		if obj.InContainer(query.ContainerID) {
			matched = append(matched, obj)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedTime.After(matched[j].CreatedTime)
	})
	if query.PageSize > 0 && len(matched) > query.PageSize {
		matched = matched[:query.PageSize]
	}
	return &port.ObjectPage{Objects: matched}, nil
}

func (m *memStore) Create(ctx context.Context, obj port.NewObject, content io.Reader) (*entity.StoredObject, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	created := m.put(obj.ContainerID, obj.Name, int64(len(data)))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	created.MimeType = obj.MimeType
	return created, nil
}

func (m *memStore) SetPublicRead(ctx context.Context, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

func (m *memStore) Rename(ctx context.Context, objectID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	obj, ok := m.objects[objectID]
	if !ok {
		return errors.New("File not found")
	}
	obj.Name = name
	return nil
}

func (m *memStore) Delete(ctx context.Context, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.objects[objectID]; !ok {
		return errors.New("File not found")
	}
	delete(m.objects, objectID)
	return nil
}

func (m *memStore) Quota(ctx context.Context) (*entity.Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return &entity.Quota{Limit: 0}, nil
}

func (m *memStore) EmptyTrash(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

// storeFactory hands out the same store for every configured token
type storeFactory struct {
	store port.ObjectStore
}

func (f storeFactory) NewStore(ctx context.Context, refreshToken string) (port.ObjectStore, error) {
	return f.store, nil
}

// staticFetcher returns a fixed body for every URL
type staticFetcher struct {
	body        string
	contentType string
	err         error
}

func (f staticFetcher) Fetch(ctx context.Context, rawURL string) (*port.RemoteFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &port.RemoteFile{
		Body:        io.NopCloser(bytes.NewBufferString(f.body)),
		ContentType: f.contentType,
	}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type testEnv struct {
	server *Server
	store  port.ObjectStore
}

type envOption func(*envSettings)

type envSettings struct {
	fetcher     port.URLFetcher
	content     port.ContentReader
	uploadLimit int64
}

func withFetcher(f port.URLFetcher) envOption {
	return func(s *envSettings) { s.fetcher = f }
}

func withContent(c port.ContentReader) envOption {
	return func(s *envSettings) { s.content = c }
}

func withUploadLimit(n int64) envOption {
	return func(s *envSettings) { s.uploadLimit = n }
}

func newTestEnv(t *testing.T, store port.ObjectStore, opts ...envOption) *testEnv {
	t.Helper()

	settings := envSettings{
		fetcher:     staticFetcher{body: "img", contentType: "image/jpeg"},
		uploadLimit: 1024,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	resolver := service.NewAccountResolver(
		entity.Account{Name: "Server VIP 1", RefreshToken: "token-1", FolderID: "folder-1"},
		entity.Account{Name: "Server VIP 2", FolderID: "folder-2"},
	)
	files := service.NewFileService(resolver, store, settings.fetcher, nil, service.FileServiceConfig{DeleteConcurrency: 4}, nopLogger{})
	usage := service.NewUsageService(resolver, store, storeFactory{store: store}, service.UsageOptions{}, nopLogger{})

	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	cfg.IndexPath = ""
	cfg.AdminPassword = testPassword
	cfg.UploadLimit = settings.uploadLimit

	return &testEnv{
		server: NewServer(cfg, resolver, files, usage, settings.content, nopLogger{}),
		store:  store,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func adminRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	req := jsonRequest(t, method, path, body)
	req.Header.Set(AdminPasswordHeader, testPassword)
	return req
}

func uploadRequest(t *testing.T, fileField, fileName string, content []byte, accountIndex string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if accountIndex != "" {
		require.NoError(t, mw.WriteField("accountIndex", accountIndex))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
