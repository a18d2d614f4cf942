package models

import "time"

const (
	LinkTypeVideo   = "video"
	LinkTypeAudio   = "audio"
	LinkTypeYouTube = "youtube"
	LinkTypeImage   = "image"
	LinkTypeOther   = "other"

	DefaultCoordinateWidth  = 10
	DefaultCoordinateHeight = 8
)

type Coordinates struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width" validate:"min=1,max=50"`
	Height float64 `json:"height" bson:"height" validate:"min=1,max=50"`
}

type MediaLink struct {
	ID            string      `json:"id" bson:"_id"`
	BrochureName  string      `json:"brochureName" bson:"brochureName" validate:"required"`
	PageNumber    int         `json:"pageNumber" bson:"pageNumber" validate:"min=1"`
	Link          string      `json:"link,omitempty" bson:"link,omitempty" validate:"omitempty,max=2000,httpurl"`
	LinkType      string      `json:"linkType" bson:"linkType" validate:"oneof=video audio youtube image other"`
	Coordinates   Coordinates `json:"coordinates" bson:"coordinates"`
	IsImage       bool        `json:"isImage" bson:"isImage"`
	Images        []string    `json:"images,omitempty" bson:"images,omitempty"`
	Priority      int         `json:"priority" bson:"priority"`
	IsActive      bool        `json:"isActive" bson:"isActive"`
	ClickCount    int64       `json:"clickCount" bson:"clickCount"`
	LastClickedAt *time.Time  `json:"lastClickedAt,omitempty" bson:"lastClickedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// ClickStat is one row of the click analytics export.
type ClickStat struct {
	ID            string
	BrochureName  string
	PageNumber    int
	LinkType      string
	Link          string
	ClickCount    int64
	LastClickedAt *time.Time
}
