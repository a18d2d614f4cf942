package brochure

import (
	"context"
	"fmt"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/fanout"
	"github.com/hivoco/flipbook-api/internal/live"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/internal/store"
	"github.com/hivoco/flipbook-api/pkg/models"
)

// Delete removes a brochure, its media links and every object they own.
//
// All object deletions are issued together and joined before anything is
// decided. Without force, any failed deletion aborts before the database is
// touched. With force, failures are reported in the summary and the records
// are removed anyway. Database failures always abort.
func (s *Service) Delete(ctx context.Context, name string, force bool) (*models.DeletionSummary, error) {
	b, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	log := s.log.WithField("brochure", b.Name).WithField("force", force)

	links, err := s.mediaLinks.ListByBrochure(ctx, b.Name, store.MediaLinkFilter{})
	if err != nil {
		return nil, apperr.Internal("Failed to load media links", err)
	}

	keys, err := s.collectKeys(ctx, b, links)
	if err != nil {
		return nil, err
	}

	results := fanout.All(ctx, s.fanoutLimit, keys, func(ctx context.Context, key string) (struct{}, error) {
		return struct{}{}, s.objects.Delete(ctx, key)
	})
	_, failed := fanout.Partition(results)

	var failedObjects []models.FailedObject
	for _, r := range failed {
		failedObjects = append(failedObjects, models.FailedObject{Key: keys[r.Index], Error: r.Err.Error()})
	}

	if len(failedObjects) > 0 {
		if !force {
			log.WithField("failed", len(failedObjects)).Error("object cleanup failed, brochure kept")
			return nil, apperr.Upstream("Failed to delete brochure files; retry or use forceDelete", nil).
				WithFailures(failedObjects)
		}
		for _, f := range failedObjects {
			log.WithField("key", f.Key).WithField("error", f.Error).Warn("object delete failed, continuing")
		}
	}

	deletedLinks, err := s.mediaLinks.DeleteByBrochure(ctx, b.Name)
	if err != nil {
		return nil, apperr.Internal("Failed to delete media links", err)
	}

	ok, err := s.brochures.Delete(ctx, b.Name)
	if err != nil {
		return nil, apperr.Internal("Failed to delete brochure", err)
	}
	if !ok {
		return nil, apperr.NotFound("Brochure not found")
	}

	summary := &models.DeletionSummary{
		BrochureName:      b.Name,
		DeletedMediaLinks: deletedLinks,
		DeletedImages:     len(b.Images),
		ObjectOperations:  len(keys),
		FailedObjects:     failedObjects,
		Forced:            force,
	}
	log.WithField("objects", len(keys)).WithField("media_links", deletedLinks).Info("brochure deleted")
	live.Emit(s.events, live.Event{Type: live.BrochureDeleted, BrochureName: b.Name, ID: b.ID, Data: summary})
	return summary, nil
}

// collectKeys lists every object owned by the brochure: its page images,
// the images of image overlays and everything under its audio folder.
func (s *Service) collectKeys(ctx context.Context, b *models.Brochure, links []models.MediaLink) ([]string, error) {
	seen := make(map[string]bool)
	var keys []string
	add := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}
	addURL := func(u string) {
		if key, ok := s.objects.KeyFromURL(u); ok {
			add(key)
			return
		}
		s.log.WithField("url", u).Warn("url is outside the object store, skipping")
	}

	for _, u := range b.Images {
		addURL(u)
	}
	for _, ml := range links {
		if !ml.IsImage {
			continue
		}
		for _, u := range ml.Images {
			addURL(u)
		}
	}

	audio, err := s.objects.List(ctx, objectstore.AudioPrefix(b.Name))
	if err != nil {
		return nil, apperr.Upstream("Failed to list brochure audio", fmt.Errorf("list audio: %w", err))
	}
	for _, key := range audio {
		add(key)
	}
	return keys, nil
}
