package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/pkg/logging"
)

func TestPutBatchStoresInInputOrder(t *testing.T) {
	g := NewMemoryGateway("https://cdn.test")
	files := []File{
		BytesFile("1.png", "image/png", []byte("one")),
		BytesFile("2.png", "image/png", []byte("two")),
	}

	stored, failures := PutBatch(context.Background(), g, 4, files, func(f File) string {
		return BrochureImageKey("deck", f.Name)
	}, logging.Discard())

	require.Empty(t, failures)
	require.Len(t, stored, 2)
	assert.Equal(t, "https://cdn.test/book/deck/1.png", stored[0].URL)
	assert.Equal(t, "book/deck/2.png", stored[1].Key)
}

func TestPutBatchCleansUpOnFailure(t *testing.T) {
	g := NewMemoryGateway("https://cdn.test")
	g.FailPut = func(key string) error {
		if key == "book/deck/2.png" {
			return errors.New("quota exceeded")
		}
		return nil
	}
	files := []File{
		BytesFile("1.png", "image/png", []byte("one")),
		BytesFile("2.png", "image/png", []byte("two")),
		BytesFile("3.png", "image/png", []byte("three")),
	}

	stored, failures := PutBatch(context.Background(), g, 4, files, func(f File) string {
		return BrochureImageKey("deck", f.Name)
	}, logging.Discard())

	assert.Nil(t, stored)
	require.Len(t, failures, 1)
	assert.Equal(t, "2.png", failures[0].Filename)
	assert.Contains(t, failures[0].Error, "quota exceeded")

	assert.Empty(t, g.Keys(), "successful uploads must be removed again")
	assert.ElementsMatch(t, []string{"book/deck/1.png", "book/deck/3.png"}, g.Deleted())
}
