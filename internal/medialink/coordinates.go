package medialink

import (
	"encoding/json"
	"strings"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/pkg/models"
)

// ParseCoordinates reads an overlay rectangle from a decoded JSON object,
// raw JSON, or a string holding JSON (how multipart forms send it).
// Missing width and height fall back to the defaults.
func ParseCoordinates(v any) (models.Coordinates, error) {
	obj, err := coordinateObject(v)
	if err != nil {
		return models.Coordinates{}, err
	}

	x, okX := obj["x"].(float64)
	y, okY := obj["y"].(float64)
	if !okX || !okY {
		return models.Coordinates{}, apperr.Validation("Coordinates x and y must be numbers")
	}

	c := models.Coordinates{
		X:      x,
		Y:      y,
		Width:  models.DefaultCoordinateWidth,
		Height: models.DefaultCoordinateHeight,
	}
	if w, ok := obj["width"]; ok && w != nil {
		f, isNum := w.(float64)
		if !isNum {
			return models.Coordinates{}, apperr.Validation("Validation failed", "Width must be between 1 and 50")
		}
		c.Width = f
	}
	if h, ok := obj["height"]; ok && h != nil {
		f, isNum := h.(float64)
		if !isNum {
			return models.Coordinates{}, apperr.Validation("Validation failed", "Height must be between 1 and 50")
		}
		c.Height = f
	}

	if msgs := models.Validate(c); msgs != nil {
		return models.Coordinates{}, apperr.Validation("Validation failed", msgs...)
	}
	return c, nil
}

func coordinateObject(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case json.RawMessage:
		return decodeCoordinates([]byte(t))
	case []byte:
		return decodeCoordinates(t)
	case string:
		return decodeCoordinates([]byte(t))
	case nil:
		return nil, apperr.Validation("Coordinates are required")
	default:
		return nil, apperr.Validation("Coordinates must be an object with x and y")
	}
}

func decodeCoordinates(b []byte) (map[string]any, error) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil, apperr.Validation("Coordinates are required")
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, apperr.Validation("Coordinates must be valid JSON")
	}
	// a JSON string holding the object, e.g. "{\"x\":1,\"y\":2}"
	if inner, ok := v.(string); ok {
		return decodeCoordinates([]byte(inner))
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation("Coordinates must be an object with x and y")
	}
	return obj, nil
}

func hasCoordinates(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case json.RawMessage:
		s := strings.TrimSpace(string(t))
		return s != "" && s != "null"
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}
