package models

import "time"

type Brochure struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name" validate:"required,slug"`
	DisplayName string    `json:"displayName" bson:"displayName" validate:"required,max=100"`
	PersonName  string    `json:"personName,omitempty" bson:"personName,omitempty" validate:"max=100"`
	TotalPages  int       `json:"totalPages" bson:"totalPages" validate:"min=1,max=1000"`
	Images      []string  `json:"images" bson:"images"`
	IsLandScape bool      `json:"isLandScape" bson:"isLandScape"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Contact struct {
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Website string `json:"website,omitempty" yaml:"website"`
}

// BrochureView is what the API returns for a single brochure.
type BrochureView struct {
	Brochure
	Contact *Contact `json:"contact,omitempty"`
}

// BrochurePatch carries the mutable brochure fields; nil means "leave as is".
type BrochurePatch struct {
	DisplayName *string   `json:"displayName"`
	PersonName  *string   `json:"personName"`
	TotalPages  *int      `json:"totalPages"`
	Images      *[]string `json:"images"`
	IsLandScape *bool     `json:"isLandScape"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type BrochurePage struct {
	Brochures  []BrochureView `json:"brochures"`
	Pagination Pagination     `json:"pagination"`
}

type FailedObject struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

type DeletionSummary struct {
	BrochureName      string         `json:"brochureName"`
	DeletedMediaLinks int64          `json:"deletedMediaLinks"`
	DeletedImages     int            `json:"deletedImages"`
	ObjectOperations  int            `json:"objectOperations"`
	FailedObjects     []FailedObject `json:"failedObjects,omitempty"`
	Forced            bool           `json:"forced"`
}

// UploadFailure is the per-file outcome reported when a batch upload aborts.
type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}
