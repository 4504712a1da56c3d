package notifications

import "time"

// Kinds produced by the scheduled alert checks.
const (
	KindVersionEnRetard = "version_en_retard"
	KindVisaEnAttente   = "visa_en_attente"
)

// Notification is a message addressed to one actor.
type Notification struct {
	ID        string     `json:"id"`
	ActorID   string     `json:"actor_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	MarcheID  string     `json:"marche_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
