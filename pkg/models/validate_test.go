package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBrochure() Brochure {
	return Brochure{
		ID:          "b1",
		Name:        "spring-catalogue",
		DisplayName: "Spring Catalogue",
		TotalPages:  3,
	}
}

func TestValidateBrochure(t *testing.T) {
	b := validBrochure()
	assert.Nil(t, Validate(b))

	b.Name = "Spring Catalogue"
	msgs := Validate(b)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "name")

	b = validBrochure()
	b.DisplayName = strings.Repeat("x", 101)
	assert.Equal(t, []string{"displayName cannot exceed 100 characters"}, Validate(b))

	b = validBrochure()
	b.TotalPages = 1001
	assert.Equal(t, []string{"totalPages must be at most 1000"}, Validate(b))

	b.TotalPages = 0
	assert.Equal(t, []string{"totalPages must be at least 1"}, Validate(b))
}

func TestValidateMediaLink(t *testing.T) {
	ml := MediaLink{
		BrochureName: "spring-catalogue",
		PageNumber:   1,
		Link:         "https://example.com/v.mp4",
		LinkType:     LinkTypeVideo,
		Coordinates:  Coordinates{X: 5, Y: 5, Width: 50, Height: 50},
	}
	assert.Nil(t, Validate(ml))

	ml.Coordinates.Width = 0
	assert.Equal(t, []string{"Width must be between 1 and 50"}, Validate(ml))

	ml.Coordinates.Width = 10
	ml.Link = "ftp://example.com"
	assert.Equal(t, []string{"Link must be a valid HTTP/HTTPS URL"}, Validate(ml))

	ml.Link = "https://example.com"
	ml.LinkType = "podcast"
	assert.Equal(t, []string{"linkType must be one of: video, audio, youtube, image, other"}, Validate(ml))
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("abc-123"))
	assert.False(t, IsSlug("abc_123"))
	assert.False(t, IsSlug(""))
}
