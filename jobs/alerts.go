package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertCounts summarises one alert scan.
type AlertCounts struct {
	Versions int `json:"versions"`
	Visas    int `json:"visas"`
	Total    int `json:"total"`
}

// AlertStore runs the two SQL alert checks. Each check inserts the
// notification rows it decides on and returns how many it inserted.
type AlertStore interface {
	CheckVersionAlerts(ctx context.Context) (int, error)
	CheckVisaAlerts(ctx context.Context) (int, error)
}

// PGAlertStore backs AlertStore with the check_* SQL functions.
type PGAlertStore struct {
	pool *pgxpool.Pool
}

// NewPGAlertStore constructs a PGAlertStore.
func NewPGAlertStore(pool *pgxpool.Pool) *PGAlertStore {
	return &PGAlertStore{pool: pool}
}

// CheckVersionAlerts flags document versions overdue for review.
func (s *PGAlertStore) CheckVersionAlerts(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT check_version_alerts()`).Scan(&count); err != nil {
		return 0, fmt.Errorf("jobs: check_version_alerts: %w", err)
	}
	return count, nil
}

// CheckVisaAlerts flags visas still awaiting a decision.
func (s *PGAlertStore) CheckVisaAlerts(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT check_visa_alerts()`).Scan(&count); err != nil {
		return 0, fmt.Errorf("jobs: check_visa_alerts: %w", err)
	}
	return count, nil
}

// AlertChecker dispatches both checks and aggregates the counts.
type AlertChecker struct {
	store  AlertStore
	logger *slog.Logger
}

// NewAlertChecker constructs an AlertChecker.
func NewAlertChecker(store AlertStore, logger *slog.Logger) *AlertChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertChecker{store: store, logger: logger}
}

// Run executes both checks. The version check failing aborts the scan;
// its counts are reported as inserted so far.
func (c *AlertChecker) Run(ctx context.Context) (AlertCounts, error) {
	var counts AlertCounts

	versions, err := c.store.CheckVersionAlerts(ctx)
	if err != nil {
		return counts, err
	}
	counts.Versions = versions

	visas, err := c.store.CheckVisaAlerts(ctx)
	if err != nil {
		counts.Total = counts.Versions
		return counts, err
	}
	counts.Visas = visas
	counts.Total = counts.Versions + counts.Visas

	c.logger.Info("alert scan finished",
		slog.Int("versions", counts.Versions),
		slog.Int("visas", counts.Visas))
	return counts, nil
}

// HandleTask adapts the checker to an Asynq handler.
func (c *AlertChecker) HandleTask(ctx context.Context, t *asynq.Task) error {
	_, err := c.Run(ctx)
	return err
}
