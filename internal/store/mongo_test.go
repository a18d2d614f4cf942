package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/pkg/database"
)

// Set FLIPBOOK_TEST_MONGO_URI to run these against a live server.
func TestMongoStores(t *testing.T) {
	uri := strings.TrimSpace(os.Getenv("FLIPBOOK_TEST_MONGO_URI"))
	if uri == "" {
		t.Skip("FLIPBOOK_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "flipbook_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	client, db, err := database.OpenMongo(ctx, database.MongoConfig{URI: uri, Database: dbName})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	br := NewMongoBrochures(db)
	ml := NewMongoMediaLinks(db)
	t.Run("brochures", func(t *testing.T) { testBrochures(t, br) })
	t.Run("media links", func(t *testing.T) { testMediaLinks(t, ml) })
	t.Run("concurrent clicks", func(t *testing.T) { testConcurrentClicks(t, ml) })
}
