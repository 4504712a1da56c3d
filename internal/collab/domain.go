package collab

import (
	"time"

	"github.com/batiflow/batiflow/internal/roles"
)

// Collaborator is a directory profile together with the role it holds
// on one marché.
type Collaborator struct {
	ActorID   string           `json:"actor_id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      roles.MarcheRole `json:"role"`
	Since     time.Time        `json:"since"`
}

// AssignRequest is the payload for granting a marché role.
type AssignRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
	Role    string `json:"role" validate:"required,oneof=MOE MANDATAIRE"`
}

// ActorHit is a search result row for the collaborator picker.
type ActorHit struct {
	ActorID   string `json:"actor_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
