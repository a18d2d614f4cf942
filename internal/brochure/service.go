package brochure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/contact"
	"github.com/hivoco/flipbook-api/internal/fanout"
	"github.com/hivoco/flipbook-api/internal/live"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/internal/store"
	"github.com/hivoco/flipbook-api/pkg/logging"
	"github.com/hivoco/flipbook-api/pkg/models"
)

const (
	defaultPresignTTL = time.Hour
	maxNameAttempts   = 5
	maxListLimit      = 100
)

type Deps struct {
	Brochures   store.Brochures
	MediaLinks  store.MediaLinks
	Objects     objectstore.Gateway
	Contacts    contact.Directory
	Events      live.Publisher
	Log         *logrus.Entry
	FanoutLimit int
	PresignTTL  time.Duration
}

type Service struct {
	brochures   store.Brochures
	mediaLinks  store.MediaLinks
	objects     objectstore.Gateway
	contacts    contact.Directory
	events      live.Publisher
	log         *logrus.Entry
	fanoutLimit int
	presignTTL  time.Duration
	now         func() time.Time
}

func NewService(d Deps) *Service {
	if d.Contacts == nil {
		d.Contacts = contact.Default()
	}
	if d.PresignTTL <= 0 {
		d.PresignTTL = defaultPresignTTL
	}
	return &Service{
		brochures:   d.Brochures,
		mediaLinks:  d.MediaLinks,
		objects:     d.Objects,
		contacts:    d.Contacts,
		events:      d.Events,
		log:         logging.OrDiscard(d.Log),
		fanoutLimit: d.FanoutLimit,
		presignTTL:  d.PresignTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create uploads the page images and stores a new brochure under a unique
// name derived from displayName.
func (s *Service) Create(ctx context.Context, displayName, personName string, files []objectstore.File) (*models.BrochureView, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.Validation("Display name is required")
	}
	if len(files) == 0 {
		return nil, apperr.Validation("At least one image is required")
	}
	for _, f := range files {
		if !objectstore.IsPageImage(f.ContentType) {
			return nil, apperr.Validation("Only image files (JPEG, PNG, WebP, GIF) are allowed",
				fmt.Sprintf("%s has unsupported type %q", f.Name, f.ContentType))
		}
	}

	base := Slugify(displayName)
	if base == "" {
		return nil, apperr.Validation("Display name must contain letters or numbers")
	}

	b, err := s.reserve(ctx, base, displayName, strings.TrimSpace(personName), len(files))
	if err != nil {
		return nil, err
	}

	stored, failures := objectstore.PutBatch(ctx, s.objects, s.fanoutLimit, files, func(f objectstore.File) string {
		return objectstore.BrochureImageKey(b.Name, f.Name)
	}, s.log)
	if len(failures) > 0 {
		s.log.WithField("brochure", b.Name).WithField("failed", len(failures)).Error("brochure upload aborted")
		s.release(ctx, b.Name)
		return nil, apperr.Upstream("Some images failed to upload", nil).WithFailures(failures)
	}

	b.Images = make([]string, len(stored))
	for i, st := range stored {
		b.Images[i] = st.URL
	}
	b.UpdatedAt = s.now()
	ok, err := s.brochures.Update(ctx, b)
	if err == nil && !ok {
		err = fmt.Errorf("brochure %q vanished before its images were saved", b.Name)
	}
	if err != nil {
		s.cleanup(ctx, stored)
		s.release(ctx, b.Name)
		return nil, apperr.Internal("Failed to save brochure", fmt.Errorf("save brochure images: %w", err))
	}

	s.log.WithField("brochure", b.Name).WithField("pages", b.TotalPages).Info("brochure created")
	live.Emit(s.events, live.Event{Type: live.BrochureCreated, BrochureName: b.Name, ID: b.ID})
	return s.view(b), nil
}

// reserve inserts an image-less record under the first free name. The
// unique index decides races, so nothing is uploaded until the name is
// ours.
func (s *Service) reserve(ctx context.Context, base, displayName, personName string, pages int) (*models.Brochure, error) {
	counter := 0
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, n, err := s.probeName(ctx, base, counter)
		if err != nil {
			return nil, err
		}

		now := s.now()
		b := &models.Brochure{
			ID:          uuid.NewString(),
			Name:        name,
			DisplayName: displayName,
			PersonName:  personName,
			TotalPages:  pages,
			Images:      []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if msgs := models.Validate(b); msgs != nil {
			return nil, apperr.Validation("Validation failed", msgs...)
		}

		err = s.brochures.Insert(ctx, b)
		if errors.Is(err, store.ErrDuplicateName) {
			s.log.WithField("brochure", name).Warn("brochure name taken concurrently, retrying with next suffix")
			counter = n + 1
			continue
		}
		if err != nil {
			return nil, apperr.Internal("Failed to save brochure", fmt.Errorf("insert brochure: %w", err))
		}
		return b, nil
	}

	return nil, apperr.Internal("Could not allocate a unique brochure name",
		fmt.Errorf("%d attempts exhausted for %q", maxNameAttempts, base))
}

// release drops a reserved record whose upload did not complete.
func (s *Service) release(ctx context.Context, name string) {
	if _, err := s.brochures.Delete(ctx, name); err != nil {
		s.log.WithError(err).WithField("brochure", name).Error("failed to drop incomplete brochure")
	}
}

// probeName returns the first free candidate at or after suffix n.
func (s *Service) probeName(ctx context.Context, base string, n int) (string, int, error) {
	for ; ; n++ {
		name := candidateName(base, n)
		taken, err := s.brochures.Exists(ctx, name)
		if err != nil {
			return "", 0, apperr.Internal("Failed to check brochure name", err)
		}
		if !taken {
			return name, n, nil
		}
	}
}

func (s *Service) cleanup(ctx context.Context, stored []objectstore.Stored) {
	keys := make([]string, len(stored))
	for i, st := range stored {
		keys[i] = st.Key
	}
	objectstore.DeleteAll(ctx, s.objects, s.fanoutLimit, keys, s.log)
}

func (s *Service) Get(ctx context.Context, name string, signed bool) (*models.BrochureView, error) {
	b, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	v := s.view(b)
	if signed {
		v.Images = s.signAll(ctx, v.Images)
	}
	return v, nil
}

type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Signed    bool
}

func (s *Service) List(ctx context.Context, p ListParams) (*models.BrochurePage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}

	q := store.BrochureListQuery{
		Offset: (p.Page - 1) * p.Limit,
		Limit:  p.Limit,
		SortBy: store.NormalizeSort(p.SortBy),
		Desc:   !strings.EqualFold(p.SortOrder, "asc"),
	}

	items, err := s.brochures.List(ctx, q)
	if err != nil {
		return nil, apperr.Internal("Failed to list brochures", err)
	}
	total, err := s.brochures.Count(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to count brochures", err)
	}

	views := make([]models.BrochureView, 0, len(items))
	for i := range items {
		v := s.view(&items[i])
		if p.Signed {
			v.Images = s.signAll(ctx, v.Images)
		}
		views = append(views, *v)
	}

	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return &models.BrochurePage{
		Brochures: views,
		Pagination: models.Pagination{
			CurrentPage: p.Page,
			TotalPages:  totalPages,
			TotalCount:  total,
			HasNext:     p.Page < totalPages,
			HasPrev:     p.Page > 1,
		},
	}, nil
}

func (s *Service) Update(ctx context.Context, name string, patch models.BrochurePatch) (*models.BrochureView, error) {
	b, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		b.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.PersonName != nil {
		b.PersonName = strings.TrimSpace(*patch.PersonName)
	}
	if patch.TotalPages != nil {
		b.TotalPages = *patch.TotalPages
	}
	if patch.Images != nil {
		b.Images = append([]string{}, (*patch.Images)...)
	}
	if patch.IsLandScape != nil {
		b.IsLandScape = *patch.IsLandScape
	}
	if msgs := models.Validate(b); msgs != nil {
		return nil, apperr.Validation("Validation failed", msgs...)
	}

	return s.save(ctx, b, live.BrochureUpdated)
}

// ToggleLandscape flips the display orientation flag.
func (s *Service) ToggleLandscape(ctx context.Context, name string) (*models.BrochureView, error) {
	b, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	b.IsLandScape = !b.IsLandScape
	return s.save(ctx, b, live.BrochureUpdated)
}

func (s *Service) save(ctx context.Context, b *models.Brochure, event string) (*models.BrochureView, error) {
	b.UpdatedAt = s.now()
	ok, err := s.brochures.Update(ctx, b)
	if err != nil {
		return nil, apperr.Internal("Failed to update brochure", err)
	}
	if !ok {
		return nil, apperr.NotFound("Brochure not found")
	}
	live.Emit(s.events, live.Event{Type: event, BrochureName: b.Name, ID: b.ID})
	return s.view(b), nil
}

func (s *Service) find(ctx context.Context, name string) (*models.Brochure, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperr.Validation("Brochure name is required")
	}
	b, err := s.brochures.GetByName(ctx, name)
	if err != nil {
		return nil, apperr.Internal("Failed to load brochure", err)
	}
	if b == nil {
		return nil, apperr.NotFound("Brochure not found")
	}
	return b, nil
}

func (s *Service) view(b *models.Brochure) *models.BrochureView {
	v := &models.BrochureView{Brochure: *b}
	v.Images = SortImages(b.Images)
	if b.PersonName != "" {
		c := s.contacts.Lookup(b.PersonName)
		v.Contact = &c
	}
	return v
}

// signAll swaps each stored URL for a presigned one, keeping the original
// when the key cannot be derived or signing fails.
func (s *Service) signAll(ctx context.Context, urls []string) []string {
	results := fanout.All(ctx, s.fanoutLimit, urls, func(ctx context.Context, u string) (string, error) {
		key, ok := s.objects.KeyFromURL(u)
		if !ok {
			return u, nil
		}
		signed, err := s.objects.PresignGet(ctx, key, s.presignTTL)
		if err != nil {
			s.log.WithError(err).WithField("key", key).Warn("presign failed, using stored url")
			return u, nil
		}
		return signed, nil
	})

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Value
	}
	return out
}
