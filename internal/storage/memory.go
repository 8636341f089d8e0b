package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It is used when no bucket is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time
}

type memoryObject struct {
	meta Object
	data []byte
}

// NewMemoryStore returns an empty store whose URLs are rooted at baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "/media"
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (m *MemoryStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	data, err := readLimited(body)
	if err != nil {
		return Object{}, err
	}

	object := Object{
		Key:         key,
		URL:         m.URL(key),
		Size:        int64(len(data)),
		ContentType: contentType,
		UpdatedAt:   m.now().UTC(),
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{meta: object, data: data}
	m.mu.Unlock()
	return object, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make([]Object, 0)
	for key, object := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, object.meta)
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *MemoryStore) URL(key string) string {
	return joinURL(m.baseURL, key)
}

// Bytes returns the stored content of key.
func (m *MemoryStore) Bytes(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	object, ok := m.objects[key]
	return object.data, ok
}
