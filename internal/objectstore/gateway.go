package objectstore

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"
)

// Gateway is the blob store the services talk to. Put returns the public
// URL of the stored object.
type Gateway interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	KeyFromURL(rawURL string) (string, bool)
}

// URLs maps object keys to public URLs under BaseURL and back.
type URLs struct {
	BaseURL string
}

func (u URLs) base() string {
	return strings.TrimRight(u.BaseURL, "/")
}

func (u URLs) PublicURL(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return u.base() + "/" + strings.Join(parts, "/")
}

// KeyFromURL recovers the object key from a URL produced by PublicURL.
// URLs on other hosts are rejected.
func (u URLs) KeyFromURL(rawURL string) (string, bool) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || target.Host == "" {
		return "", false
	}
	base, err := url.Parse(u.base())
	if err != nil || !strings.EqualFold(base.Host, target.Host) {
		return "", false
	}

	basePath := strings.TrimRight(base.Path, "/")
	if !strings.HasPrefix(target.Path, basePath+"/") {
		return "", false
	}
	key := strings.TrimPrefix(target.Path, basePath+"/")
	if key == "" {
		return "", false
	}
	return key, true
}
