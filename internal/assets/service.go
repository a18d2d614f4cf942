package assets

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/brochure"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/pkg/logging"
)

// Asset is a stored free-form upload.
type Asset struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	Category     string `json:"category"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	OriginalName string `json:"originalName"`
}

// Service stores media files that are not brochure pages (videos, audio,
// documents) in per-brochure folders chosen by content type.
type Service struct {
	objects objectstore.Gateway
	log     *logrus.Entry
}

func NewService(objects objectstore.Gateway, log *logrus.Entry) *Service {
	return &Service{objects: objects, log: logging.OrDiscard(log)}
}

func (s *Service) Upload(ctx context.Context, brochureName string, f objectstore.File) (*Asset, error) {
	folder := brochure.Slugify(brochureName)
	if folder == "" {
		return nil, apperr.Validation("brochureName is required")
	}
	if f.Open == nil || strings.TrimSpace(f.Name) == "" {
		return nil, apperr.Validation("No file uploaded")
	}

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
		f.ContentType = ct
	}
	category := objectstore.CategoryFor(ct)

	stored, err := objectstore.PutFile(ctx, s.objects, objectstore.CategorizedKey(folder, category, f.Name), f)
	if err != nil {
		return nil, apperr.Upstream("Failed to upload file", err)
	}

	s.log.WithFields(logrus.Fields{
		"brochure": folder,
		"key":      stored.Key,
		"category": category,
		"size":     f.Size,
	}).Info("asset uploaded")

	return &Asset{
		URL:          stored.URL,
		Key:          stored.Key,
		Category:     category,
		ContentType:  ct,
		Size:         f.Size,
		OriginalName: f.Name,
	}, nil
}

// UploadAll stores several files as one batch; if any upload fails the
// rest are removed again.
func (s *Service) UploadAll(ctx context.Context, brochureName string, files []objectstore.File, limit int) ([]Asset, error) {
	folder := brochure.Slugify(brochureName)
	if folder == "" {
		return nil, apperr.Validation("brochureName is required")
	}
	if len(files) == 0 {
		return nil, apperr.Validation("No file uploaded")
	}

	keyFor := func(f objectstore.File) string {
		return objectstore.CategorizedKey(folder, objectstore.CategoryFor(f.ContentType), f.Name)
	}
	stored, failures := objectstore.PutBatch(ctx, s.objects, limit, files, keyFor, s.log)
	if len(failures) > 0 {
		return nil, apperr.Upstream("Some files failed to upload", nil).WithFailures(failures)
	}

	out := make([]Asset, len(stored))
	for i, st := range stored {
		out[i] = Asset{
			URL:          st.URL,
			Key:          st.Key,
			Category:     objectstore.CategoryFor(files[i].ContentType),
			ContentType:  files[i].ContentType,
			Size:         files[i].Size,
			OriginalName: files[i].Name,
		}
	}
	s.log.WithField("brochure", folder).WithField("files", len(out)).Info("assets uploaded")
	return out, nil
}
