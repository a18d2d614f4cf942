package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/store"
	"github.com/hivoco/flipbook-api/pkg/database"
	"github.com/hivoco/flipbook-api/pkg/logging"
	"github.com/hivoco/flipbook-api/pkg/models"
	"github.com/hivoco/flipbook-api/pkg/utils"
)

func main() {
	var (
		out      = flag.String("out", "data/media_link_clicks.csv", "output CSV path")
		brochure = flag.String("brochure", "", "only export links of this brochure")
	)
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	links, closeStore, err := openMediaLinks(ctx, cfg)
	if err != nil {
		logrus.Fatalf("store: %v", err)
	}
	defer closeStore()

	stats, err := links.ClickStats(ctx, strings.ToLower(strings.TrimSpace(*brochure)))
	if err != nil {
		logrus.Fatalf("load click stats: %v", err)
	}
	if err := writeCSV(*out, stats); err != nil {
		logrus.Fatalf("export clicks: %v", err)
	}

	logrus.WithField("rows", len(stats)).WithField("path", *out).Info("exported media link clicks")
}

func openMediaLinks(ctx context.Context, cfg *utils.Config) (store.MediaLinks, func(), error) {
	if strings.EqualFold(cfg.Store.Backend, "sqlite") {
		db, err := database.Open(database.Config{Path: cfg.Store.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteMediaLinks(db), func() { _ = db.Close() }, nil
	}

	client, db, err := database.OpenMongo(ctx, database.MongoConfig{
		URI:      cfg.Store.MongoURI,
		Database: cfg.Store.MongoDatabase,
	})
	if err != nil {
		return nil, nil, err
	}
	return store.NewMongoMediaLinks(db), func() { _ = client.Disconnect(context.Background()) }, nil
}

func writeCSV(outPath string, stats []models.ClickStat) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "brochure_name", "page_number", "link_type", "link", "click_count", "last_clicked_at"}); err != nil {
		return err
	}

	for _, s := range stats {
		last := ""
		if s.LastClickedAt != nil {
			last = s.LastClickedAt.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{
			s.ID,
			s.BrochureName,
			strconv.Itoa(s.PageNumber),
			s.LinkType,
			s.Link,
			strconv.FormatInt(s.ClickCount, 10),
			last,
		}); err != nil {
			return fmt.Errorf("write row %s: %w", s.ID, err)
		}
	}

	w.Flush()
	return w.Error()
}
