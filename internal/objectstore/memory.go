package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryGateway keeps objects in process memory. It backs local development
// and tests; the Fail* hooks let a caller inject per-key failures.
type MemoryGateway struct {
	URLs

	FailPut     func(key string) error
	FailDelete  func(key string) error
	FailPresign func(key string) error

	mu      sync.Mutex
	objects map[string]memObject
	deleted []string
}

func NewMemoryGateway(baseURL string) *MemoryGateway {
	if baseURL == "" {
		baseURL = "http://localhost:8080/objects"
	}
	return &MemoryGateway{
		URLs:    URLs{BaseURL: baseURL},
		objects: make(map[string]memObject),
	}
}

func (g *MemoryGateway) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if g.FailPut != nil {
		if err := g.FailPut(key); err != nil {
			return "", fmt.Errorf("put object %s: %w", key, err)
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read body %s: %w", key, err)
	}

	g.mu.Lock()
	g.objects[key] = memObject{data: buf.Bytes(), contentType: contentType}
	g.mu.Unlock()
	return g.PublicURL(key), nil
}

func (g *MemoryGateway) Delete(ctx context.Context, key string) error {
	if g.FailDelete != nil {
		if err := g.FailDelete(key); err != nil {
			return fmt.Errorf("remove object %s: %w", key, err)
		}
	}
	g.mu.Lock()
	delete(g.objects, key)
	g.deleted = append(g.deleted, key)
	g.mu.Unlock()
	return nil
}

func (g *MemoryGateway) List(ctx context.Context, prefix string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var keys []string
	for k := range g.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *MemoryGateway) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if g.FailPresign != nil {
		if err := g.FailPresign(key); err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
	}
	return fmt.Sprintf("%s?expires=%d", g.PublicURL(key), time.Now().Add(ttl).Unix()), nil
}

// Has reports whether key is currently stored.
func (g *MemoryGateway) Has(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.objects[key]
	return ok
}

// Get returns the stored bytes and content type for key.
func (g *MemoryGateway) Get(key string) ([]byte, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	obj, ok := g.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys returns every stored key in order.
func (g *MemoryGateway) Keys() []string {
	keys, _ := g.List(context.Background(), "")
	return keys
}

// Deleted returns the keys removed so far, in call order.
func (g *MemoryGateway) Deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}
