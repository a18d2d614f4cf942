package medialink

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/live"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/internal/store"
	"github.com/hivoco/flipbook-api/pkg/logging"
	"github.com/hivoco/flipbook-api/pkg/models"
)

type Deps struct {
	Brochures   store.Brochures
	MediaLinks  store.MediaLinks
	Objects     objectstore.Gateway
	Events      live.Publisher
	Log         *logrus.Entry
	FanoutLimit int
}

type Service struct {
	brochures   store.Brochures
	mediaLinks  store.MediaLinks
	objects     objectstore.Gateway
	events      live.Publisher
	log         *logrus.Entry
	fanoutLimit int
	now         func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		brochures:   d.Brochures,
		mediaLinks:  d.MediaLinks,
		objects:     d.Objects,
		events:      d.Events,
		log:         logging.OrDiscard(d.Log),
		fanoutLimit: d.FanoutLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a new overlay. Coordinates may be a decoded object,
// raw JSON or a JSON string.
type CreateInput struct {
	BrochureName string
	PageNumber   int
	Link         string
	LinkType     string
	Coordinates  any
	Priority     int
	IsActive     *bool
}

// Create stores a link overlay on a brochure page.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.MediaLink, error) {
	if strings.TrimSpace(in.BrochureName) == "" || in.PageNumber == 0 ||
		strings.TrimSpace(in.Link) == "" || !hasCoordinates(in.Coordinates) {
		return nil, apperr.Validation("brochureName, pageNumber, link, and coordinates are required")
	}

	ml, err := s.prepare(ctx, in, models.LinkTypeOther)
	if err != nil {
		return nil, err
	}
	ml.Link = strings.TrimSpace(in.Link)

	if err := s.insert(ctx, ml); err != nil {
		return nil, err
	}
	return ml, nil
}

// CreateImage uploads files and stores an image overlay pointing at them.
// If any upload fails the others are removed and nothing is stored.
func (s *Service) CreateImage(ctx context.Context, in CreateInput, files []objectstore.File) (*models.MediaLink, error) {
	if strings.TrimSpace(in.BrochureName) == "" || in.PageNumber == 0 ||
		!hasCoordinates(in.Coordinates) || len(files) == 0 {
		return nil, apperr.Validation("brochureName, pageNumber, coordinates, and at least one image are required")
	}
	for _, f := range files {
		if !objectstore.IsPageImage(f.ContentType) {
			return nil, apperr.Validation("Only image files (JPEG, PNG, WebP, GIF) are allowed",
				fmt.Sprintf("%s has unsupported type %q", f.Name, f.ContentType))
		}
	}

	ml, err := s.prepare(ctx, in, models.LinkTypeImage)
	if err != nil {
		return nil, err
	}
	ml.Link = strings.TrimSpace(in.Link)
	ml.IsImage = true

	stored, failures := objectstore.PutBatch(ctx, s.objects, s.fanoutLimit, files, func(f objectstore.File) string {
		return objectstore.CategorizedKey(ml.BrochureName, objectstore.CategoryImages, f.Name)
	}, s.log)
	if len(failures) > 0 {
		s.log.WithField("brochure", ml.BrochureName).WithField("failed", len(failures)).Error("image overlay upload aborted")
		return nil, apperr.Upstream("Some images failed to upload", nil).WithFailures(failures)
	}
	for _, st := range stored {
		ml.Images = append(ml.Images, st.URL)
	}

	if err := s.insert(ctx, ml); err != nil {
		keys := make([]string, len(stored))
		for i, st := range stored {
			keys[i] = st.Key
		}
		objectstore.DeleteAll(ctx, s.objects, s.fanoutLimit, keys, s.log)
		return nil, err
	}
	return ml, nil
}

// prepare resolves the brochure, checks the page and coordinates and returns
// an unsaved overlay.
func (s *Service) prepare(ctx context.Context, in CreateInput, defaultType string) (*models.MediaLink, error) {
	b, err := s.brochure(ctx, in.BrochureName)
	if err != nil {
		return nil, err
	}
	if err := checkPage(in.PageNumber, b); err != nil {
		return nil, err
	}
	coords, err := ParseCoordinates(in.Coordinates)
	if err != nil {
		return nil, err
	}

	linkType := strings.ToLower(strings.TrimSpace(in.LinkType))
	if linkType == "" {
		linkType = defaultType
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := s.now()
	return &models.MediaLink{
		ID:           uuid.NewString(),
		BrochureName: b.Name,
		PageNumber:   in.PageNumber,
		LinkType:     linkType,
		Coordinates:  coords,
		Priority:     in.Priority,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) insert(ctx context.Context, ml *models.MediaLink) error {
	if msgs := validateLink(ml); msgs != nil {
		return apperr.Validation("Validation failed", msgs...)
	}
	if err := s.mediaLinks.Insert(ctx, ml); err != nil {
		return apperr.Internal("Failed to save media link", err)
	}
	s.log.WithField("brochure", ml.BrochureName).WithField("id", ml.ID).WithField("page", ml.PageNumber).Info("media link created")
	live.Emit(s.events, live.Event{Type: live.MediaLinkCreated, BrochureName: ml.BrochureName, ID: ml.ID, Data: ml})
	return nil
}

// ListForBrochure returns a brochure's overlays, highest priority first and
// newest first within a priority.
func (s *Service) ListForBrochure(ctx context.Context, brochureName string, f store.MediaLinkFilter) ([]models.MediaLink, error) {
	b, err := s.brochure(ctx, brochureName)
	if err != nil {
		return nil, err
	}
	if f.LinkType != "" {
		f.LinkType = strings.ToLower(strings.TrimSpace(f.LinkType))
	}
	links, err := s.mediaLinks.ListByBrochure(ctx, b.Name, f)
	if err != nil {
		return nil, apperr.Internal("Failed to load media links", err)
	}
	return links, nil
}

func (s *Service) ListForPage(ctx context.Context, brochureName string, page int) ([]models.MediaLink, error) {
	b, err := s.brochure(ctx, brochureName)
	if err != nil {
		return nil, err
	}
	if err := checkPage(page, b); err != nil {
		return nil, err
	}
	links, err := s.mediaLinks.ListByBrochure(ctx, b.Name, store.MediaLinkFilter{PageNumber: &page})
	if err != nil {
		return nil, apperr.Internal("Failed to load media links", err)
	}
	return links, nil
}

// Update merges fields into the overlay and re-checks the result. Ids,
// timestamps and click counters are ignored.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (*models.MediaLink, error) {
	ml, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, k := range []string{"_id", "id", "createdAt", "updatedAt", "clickCount", "lastClickedAt"} {
		delete(fields, k)
	}

	var bad []string
	relocated := false

	if v, ok := fields["brochureName"]; ok {
		name, isStr := v.(string)
		if !isStr || strings.TrimSpace(name) == "" {
			bad = append(bad, "brochureName must be a non-empty string")
		} else {
			b, err := s.brochure(ctx, name)
			if err != nil {
				return nil, err
			}
			relocated = b.Name != ml.BrochureName
			ml.BrochureName = b.Name
		}
	}
	if v, ok := fields["pageNumber"]; ok {
		n, isInt := asInt(v)
		if !isInt {
			bad = append(bad, "pageNumber must be a whole number")
		} else {
			ml.PageNumber = n
			relocated = true
		}
	}
	if v, ok := fields["link"]; ok {
		link, isStr := v.(string)
		if v != nil && !isStr {
			bad = append(bad, "link must be a string")
		}
		ml.Link = strings.TrimSpace(link)
	}
	if v, ok := fields["linkType"]; ok {
		lt, isStr := v.(string)
		if !isStr {
			bad = append(bad, "linkType must be a string")
		}
		ml.LinkType = strings.ToLower(strings.TrimSpace(lt))
	}
	if v, ok := fields["coordinates"]; ok {
		coords, err := ParseCoordinates(v)
		if err != nil {
			return nil, err
		}
		ml.Coordinates = coords
	}
	if v, ok := fields["priority"]; ok {
		n, isInt := asInt(v)
		if !isInt {
			bad = append(bad, "priority must be a whole number")
		}
		ml.Priority = n
	}
	if v, ok := fields["isActive"]; ok {
		active, isBool := v.(bool)
		if !isBool {
			bad = append(bad, "isActive must be a boolean")
		}
		ml.IsActive = active
	}
	if v, ok := fields["images"]; ok {
		images, isList := asStrings(v)
		if !isList {
			bad = append(bad, "images must be a list of URLs")
		}
		ml.Images = images
	}
	if v, ok := fields["isImage"]; ok {
		isImage, isBool := v.(bool)
		if !isBool {
			bad = append(bad, "isImage must be a boolean")
		}
		ml.IsImage = isImage
	}

	if len(bad) > 0 {
		return nil, apperr.Validation("Validation failed", bad...)
	}

	if relocated {
		b, err := s.brochure(ctx, ml.BrochureName)
		if err != nil {
			return nil, err
		}
		if err := checkPage(ml.PageNumber, b); err != nil {
			return nil, err
		}
	}
	if msgs := validateLink(ml); msgs != nil {
		return nil, apperr.Validation("Validation failed", msgs...)
	}

	ml.UpdatedAt = s.now()
	ok, err := s.mediaLinks.Update(ctx, ml)
	if err != nil {
		return nil, apperr.Internal("Failed to update media link", err)
	}
	if !ok {
		return nil, apperr.NotFound("Media link not found")
	}

	live.Emit(s.events, live.Event{Type: live.MediaLinkUpdated, BrochureName: ml.BrochureName, ID: ml.ID, Data: ml})
	return ml, nil
}

// Delete removes the overlay. Images of an image overlay are removed on a
// best-effort basis.
func (s *Service) Delete(ctx context.Context, id string) (*models.MediaLink, error) {
	ml, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.mediaLinks.Delete(ctx, ml.ID)
	if err != nil {
		return nil, apperr.Internal("Failed to delete media link", err)
	}
	if !ok {
		return nil, apperr.NotFound("Media link not found")
	}

	if ml.IsImage && len(ml.Images) > 0 {
		var keys []string
		for _, u := range ml.Images {
			if key, ok := s.objects.KeyFromURL(u); ok {
				keys = append(keys, key)
			}
		}
		objectstore.DeleteAll(ctx, s.objects, s.fanoutLimit, keys, s.log.WithField("media_link", ml.ID))
	}

	s.log.WithField("brochure", ml.BrochureName).WithField("id", ml.ID).Info("media link deleted")
	live.Emit(s.events, live.Event{Type: live.MediaLinkDeleted, BrochureName: ml.BrochureName, ID: ml.ID})
	return ml, nil
}

// RecordClick bumps the overlay's click counter in a single store operation.
func (s *Service) RecordClick(ctx context.Context, id string) (*models.MediaLink, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("Media link id is required")
	}
	ml, err := s.mediaLinks.IncrementClick(ctx, id, s.now())
	if err != nil {
		return nil, apperr.Internal("Failed to record click", err)
	}
	if ml == nil {
		return nil, apperr.NotFound("Media link not found")
	}

	live.Emit(s.events, live.Event{
		Type:         live.MediaLinkClicked,
		BrochureName: ml.BrochureName,
		ID:           ml.ID,
		Data:         map[string]int64{"clickCount": ml.ClickCount},
	})
	return ml, nil
}

func (s *Service) brochure(ctx context.Context, name string) (*models.Brochure, error) {
	b, err := s.brochures.GetByName(ctx, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, apperr.Internal("Failed to load brochure", err)
	}
	if b == nil {
		return nil, apperr.NotFound("Brochure not found")
	}
	return b, nil
}

func (s *Service) find(ctx context.Context, id string) (*models.MediaLink, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("Media link id is required")
	}
	ml, err := s.mediaLinks.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Failed to load media link", err)
	}
	if ml == nil {
		return nil, apperr.NotFound("Media link not found")
	}
	return ml, nil
}

func checkPage(page int, b *models.Brochure) error {
	if page < 1 || page > b.TotalPages {
		return apperr.Validation(fmt.Sprintf("Page number must be between 1 and %d", b.TotalPages))
	}
	return nil
}

// validateLink applies the tag rules plus the checks that depend on the
// overlay variant.
func validateLink(ml *models.MediaLink) []string {
	msgs := models.Validate(ml)
	if ml.IsImage {
		if len(ml.Images) == 0 {
			msgs = append(msgs, "images must contain at least one URL for image links")
		}
	} else if ml.Link == "" {
		msgs = append(msgs, "link is required")
	}
	return msgs
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asStrings(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
