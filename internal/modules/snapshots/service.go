package snapshots

import (
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/rs/zerolog"
)

// HoldingProvider supplies holding records to the snapshots module without
// importing the holdings module directly.
type HoldingProvider interface {
	// Get retrieves a holding by ID. Returns nil if absent or soft-deleted.
	Get(id string) (*domain.Holding, error)
}

// Service validates and records balance snapshots
type Service struct {
	repo     *Repository
	holdings HoldingProvider
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService creates a new snapshots service
func NewService(repo *Repository, holdings HoldingProvider, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		holdings: holdings,
		bus:      bus,
		log:      log.With().Str("service", "snapshots").Logger(),
	}
}

// Record validates and stores a balance snapshot. The month is normalized to
// the first of its month; a snapshot already recorded for that month is
// replaced.
func (s *Service) Record(snap domain.Snapshot) (*domain.Snapshot, error) {
	if snap.HoldingID == "" {
		return nil, &domain.ValidationError{Field: "holding_id", Message: "is required"}
	}
	if snap.Month.IsZero() {
		return nil, &domain.ValidationError{Field: "month", Message: "is required"}
	}
	if snap.Balance.IsNegative() {
		return nil, &domain.ValidationError{Field: "balance", Message: "must not be negative"}
	}

	holding, err := s.holdings.Get(snap.HoldingID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up holding: %w", err)
	}
	if holding == nil {
		return nil, &domain.NotFoundError{Entity: "holding", ID: snap.HoldingID}
	}
	if !holding.Type.IsSnapshotBased() {
		return nil, &domain.ValidationError{
			Field:   "holding_id",
			Message: "holding is quote-priced; record transactions instead of snapshots",
		}
	}
	if snap.Currency != holding.Currency {
		return nil, &domain.ValidationError{
			Field:   "currency",
			Message: fmt.Sprintf("must match holding currency %s", holding.Currency),
		}
	}

	stored, err := s.repo.Upsert(snap)
	if err != nil {
		return nil, err
	}

	// Debt balances are recorded as positive magnitudes; the aggregation
	// decides which side of the ledger they land on.
	if s.bus != nil {
		data := &events.SnapshotEventData{
			ID:        stored.ID,
			HoldingID: stored.HoldingID,
			Month:     stored.Month.Format(monthLayout),
			Balance:   stored.Balance.String(),
			Currency:  string(stored.Currency),
		}
		s.bus.Publish(data.EventType(), "snapshots", data)
	}

	return &stored, nil
}

// List returns a holding's snapshots, oldest first
func (s *Service) List(holdingID string) ([]domain.Snapshot, error) {
	return s.repo.ListByHolding(holdingID)
}

// LatestOnOrBefore exposes the carry-forward lookup
func (s *Service) LatestOnOrBefore(holdingID string, date time.Time) (*domain.Snapshot, error) {
	return s.repo.LatestOnOrBefore(holdingID, date)
}

// Delete soft-deletes a snapshot
func (s *Service) Delete(id int64) error {
	return s.repo.SetDeleted(id, true)
}

// Restore un-deletes a snapshot
func (s *Service) Restore(id int64) error {
	return s.repo.SetDeleted(id, false)
}
