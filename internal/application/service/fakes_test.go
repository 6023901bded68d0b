package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

var errNotFound = errors.New("File not found")

// fakeStore is an in-memory port.ObjectStore. chunk overrides the page size the
// caller asks for, imitating a provider that pages however it likes.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]*entity.StoredObject
	seq       int
	chunk     int
	failAfter int // fail the List call with this 1-based number; 0 disables
	listCalls int
	quota     entity.Quota
	quotaErr  error
	public    map[string]bool
	emptied   bool
	calls     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string]*entity.StoredObject),
		public:  make(map[string]bool),
	}
}

func (f *fakeStore) add(container, name string, size int64) *entity.StoredObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	obj := &entity.StoredObject{
		ID:          fmt.Sprintf("obj-%d", f.seq),
		Name:        name,
		Size:        size,
		CreatedTime: time.Unix(int64(f.seq), 0),
		Parents:     []string{container},
	}
	f.objects[obj.ID] = obj
	return obj
}

func (f *fakeStore) List(ctx context.Context, query port.ListQuery) (*port.ObjectPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	f.listCalls++
	if f.failAfter > 0 && f.listCalls >= f.failAfter {
		return nil, errors.New("backend unavailable")
	}

	var matched []*entity.StoredObject
	for _, obj := range f.objects {
		if obj.InContainer(query.ContainerID) {
			matched = append(matched, obj)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if query.NewestFirst {
			return matched[i].CreatedTime.After(matched[j].CreatedTime)
		}
		return matched[i].CreatedTime.Before(matched[j].CreatedTime)
	})

	size := query.PageSize
	if f.chunk > 0 {
		size = f.chunk
	}
	if size <= 0 {
		size = 100
	}
	offset, _ := strconv.Atoi(query.PageToken)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + size
	page := &port.ObjectPage{}
	if end < len(matched) {
		page.NextPageToken = strconv.Itoa(end)
	} else {
		end = len(matched)
	}
	page.Objects = matched[offset:end]
	return page, nil
}

func (f *fakeStore) Create(ctx context.Context, obj port.NewObject, content io.Reader) (*entity.StoredObject, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	created := f.add(obj.ContainerID, obj.Name, int64(len(data)))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	created.MimeType = obj.MimeType
	created.WebViewLink = "https://drive.example/" + created.ID
	return created, nil
}

func (f *fakeStore) SetPublicRead(ctx context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "share")
	if _, ok := f.objects[objectID]; !ok {
		return errNotFound
	}
	f.public[objectID] = true
	return nil
}

func (f *fakeStore) Rename(ctx context.Context, objectID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectID]
	if !ok {
		return errNotFound
	}
	obj.Name = name
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[objectID]; !ok {
		return errNotFound
	}
	delete(f.objects, objectID)
	return nil
}

func (f *fakeStore) Quota(ctx context.Context) (*entity.Quota, error) {
	if f.quotaErr != nil {
		return nil, f.quotaErr
	}
	q := f.quota
	return &q, nil
}

func (f *fakeStore) EmptyTrash(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emptied = true
	return nil
}

// fakeFactory returns a pre-registered store per refresh token
type fakeFactory struct {
	stores map[string]*fakeStore
	built  []string
}

func (f *fakeFactory) NewStore(ctx context.Context, refreshToken string) (port.ObjectStore, error) {
	f.built = append(f.built, refreshToken)
	store, ok := f.stores[refreshToken]
	if !ok {
		return nil, fmt.Errorf("invalid_grant")
	}
	return store, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func testResolver() *AccountResolver {
	return NewAccountResolver(
		entity.Account{Name: "Server VIP 1", RefreshToken: "token-1", FolderID: "folder-1"},
		entity.Account{Name: "Server VIP 2", RefreshToken: "token-2", FolderID: "folder-2"},
	)
}
