package marches

import "time"

// Status values a marché moves through.
const (
	StatusPreparation = "EN_PREPARATION"
	StatusEnCours     = "EN_COURS"
	StatusAcheve      = "ACHEVE"
	StatusArchive     = "ARCHIVE"
)

// Marche is a public-works contract, the scoping unit for access
// control.
type Marche struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Client      string     `json:"client"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	BudgetCents int64      `json:"budget_cents"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateRequest is the payload for creating a marché.
type CreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Client      string     `json:"client" validate:"required,min=2,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetCents int64      `json:"budget_cents" validate:"gte=0"`
}

// UpdateRequest is the payload for updating a marché.
type UpdateRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Status      string     `json:"status" validate:"required,oneof=EN_PREPARATION EN_COURS ACHEVE ARCHIVE"`
	Client      string     `json:"client" validate:"required,min=2,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetCents int64      `json:"budget_cents" validate:"gte=0"`
}
