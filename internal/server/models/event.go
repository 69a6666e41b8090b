package models

import "time"

// Event groups talks under an organizer. Once published an event cannot be
// unpublished.
type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	// PictureKey is the object-storage key of the event picture, empty when
	// no picture has been uploaded.
	PictureKey  string
	IsPublished bool
	StartedAt   time.Time
	CreatedAt   time.Time
}
