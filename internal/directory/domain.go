package directory

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested directory record does not exist.
var ErrNotFound = errors.New("directory: not found")

// Profile is the directory record behind an authenticated actor.
type Profile struct {
	ActorID    string
	Email      string
	FirstName  string
	LastName   string
	GlobalRole string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Assignment grants a marché-scoped role to an actor.
type Assignment struct {
	ActorID   string
	MarcheID  string
	Role      string
	CreatedAt time.Time
}
