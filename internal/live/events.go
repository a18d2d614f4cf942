package live

import "time"

const (
	BrochureCreated  = "brochure.created"
	BrochureUpdated  = "brochure.updated"
	BrochureDeleted  = "brochure.deleted"
	MediaLinkCreated = "medialink.created"
	MediaLinkUpdated = "medialink.updated"
	MediaLinkDeleted = "medialink.deleted"
	MediaLinkClicked = "medialink.clicked"
	AudioGenerated   = "audio.generated"
)

type Event struct {
	Type         string    `json:"type"`
	BrochureName string    `json:"brochureName"`
	ID           string    `json:"id,omitempty"`
	Data         any       `json:"data,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher receives change events. Publishing is best-effort.
type Publisher interface {
	Publish(ev Event)
}

// Emit publishes ev when p is set. It runs on the caller's goroutine so a
// brochure's events reach subscribers in the order they happened.
func Emit(p Publisher, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	p.Publish(ev)
}
