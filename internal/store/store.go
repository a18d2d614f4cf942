package store

import (
	"context"
	"errors"
	"time"

	"github.com/hivoco/flipbook-api/pkg/models"
)

// ErrDuplicateName is returned by Brochures.Insert when the name is taken.
var ErrDuplicateName = errors.New("brochure name already exists")

type BrochureListQuery struct {
	Offset int
	Limit  int
	SortBy string // one of the SortFields keys
	Desc   bool
}

// SortFields are the brochure fields a list may be ordered by.
var SortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"name":        "name",
	"displayName": "display_name",
	"totalPages":  "total_pages",
}

// NormalizeSort maps an arbitrary sort key onto a supported one.
func NormalizeSort(sortBy string) string {
	if _, ok := SortFields[sortBy]; ok {
		return sortBy
	}
	return "createdAt"
}

type MediaLinkFilter struct {
	PageNumber *int
	LinkType   string
	IsActive   *bool
}

// Brochures persists brochure records. Getters return (nil, nil) when the
// record does not exist.
type Brochures interface {
	Insert(ctx context.Context, b *models.Brochure) error
	GetByName(ctx context.Context, name string) (*models.Brochure, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, q BrochureListQuery) ([]models.Brochure, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, b *models.Brochure) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
	Ping(ctx context.Context) error
}

// MediaLinks persists overlay records. Update never touches the click
// counters; those only move through IncrementClick.
type MediaLinks interface {
	Insert(ctx context.Context, ml *models.MediaLink) error
	GetByID(ctx context.Context, id string) (*models.MediaLink, error)
	ListByBrochure(ctx context.Context, brochureName string, f MediaLinkFilter) ([]models.MediaLink, error)
	Update(ctx context.Context, ml *models.MediaLink) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByBrochure(ctx context.Context, brochureName string) (int64, error)
	IncrementClick(ctx context.Context, id string, at time.Time) (*models.MediaLink, error)
	ClickStats(ctx context.Context, brochureName string) ([]models.ClickStat, error)
}
