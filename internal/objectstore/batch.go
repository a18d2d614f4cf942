package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/fanout"
	"github.com/hivoco/flipbook-api/pkg/models"
)

// File is an upload waiting to be stored. Open may be called more than once.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func BytesFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

type Stored struct {
	Key string
	URL string
}

// PutFile stores a single file under key.
func PutFile(ctx context.Context, g Gateway, key string, f File) (Stored, error) {
	rc, err := f.Open()
	if err != nil {
		return Stored{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	url, err := g.Put(ctx, key, rc, f.Size, f.ContentType)
	if err != nil {
		return Stored{}, err
	}
	return Stored{Key: key, URL: url}, nil
}

// PutBatch uploads every file concurrently and waits for all of them. When
// any upload fails the objects that did get stored are deleted again and
// the per-file failures are returned; stored is then nil.
func PutBatch(ctx context.Context, g Gateway, limit int, files []File, keyFor func(File) string, log *logrus.Entry) ([]Stored, []models.UploadFailure) {
	results := fanout.All(ctx, limit, files, func(ctx context.Context, f File) (Stored, error) {
		return PutFile(ctx, g, keyFor(f), f)
	})

	ok, failed := fanout.Partition(results)
	if len(failed) == 0 {
		stored := make([]Stored, len(results))
		for i, r := range results {
			stored[i] = r.Value
		}
		return stored, nil
	}

	failures := make([]models.UploadFailure, 0, len(failed))
	for _, r := range failed {
		failures = append(failures, models.UploadFailure{
			Filename: files[r.Index].Name,
			Error:    r.Err.Error(),
		})
	}

	keys := make([]string, 0, len(ok))
	for _, r := range ok {
		keys = append(keys, r.Value.Key)
	}
	DeleteAll(ctx, g, limit, keys, log)
	return nil, failures
}

// DeleteAll removes keys concurrently, logging but otherwise ignoring
// failures.
func DeleteAll(ctx context.Context, g Gateway, limit int, keys []string, log *logrus.Entry) {
	if len(keys) == 0 {
		return
	}
	results := fanout.All(ctx, limit, keys, func(ctx context.Context, key string) (struct{}, error) {
		return struct{}{}, g.Delete(ctx, key)
	})
	for _, r := range results {
		if r.Err != nil && log != nil {
			log.WithError(r.Err).WithField("key", keys[r.Index]).Warn("cleanup delete failed")
		}
	}
}
