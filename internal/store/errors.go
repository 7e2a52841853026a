package store

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrVersionConflict is returned when a conditional write lost a race.
	ErrVersionConflict = errors.New("store: version conflict")
	// ErrAlreadyExists is returned when creating a document whose id is taken.
	ErrAlreadyExists = errors.New("store: document already exists")
)

// GameFilter narrows ListGames. Zero values match everything.
type GameFilter struct {
	Statuses []string
	HostID   string
}
