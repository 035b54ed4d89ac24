package ledger

import (
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/rs/zerolog"
)

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	// Create inserts a new transaction and returns it with ID and CreatedAt set
	Create(tx domain.Transaction) (domain.Transaction, error)

	// GetByID retrieves a transaction by ID, deleted or not. Returns nil if absent.
	GetByID(id int64) (*domain.Transaction, error)

	// ListByHolding retrieves non-deleted transactions for a holding in replay order
	ListByHolding(holdingID string) ([]domain.Transaction, error)

	// ListRecent retrieves the most recent non-deleted transactions across holdings
	ListRecent(limit int) ([]domain.Transaction, error)

	// SetDeleted flips the soft-delete flag on a transaction
	SetDeleted(id int64, deleted bool) error

	// Summary returns non-deleted transaction counts keyed by action plus "total"
	Summary() (map[string]int64, error)
}

// Compile-time check that Repository implements TransactionRepository
var _ TransactionRepository = (*Repository)(nil)

// HoldingProvider supplies holding records to the ledger without importing
// the holdings module directly.
type HoldingProvider interface {
	// Get retrieves a holding by ID. Returns nil if absent or soft-deleted.
	Get(id string) (*domain.Holding, error)
}

// Service handles transaction recording and cost basis queries.
//
// Every mutation is validated by replaying the holding's full transaction
// sequence, so an append, delete or restore can never leave the ledger in a
// state where a sell exceeds the quantity held at its point in the sequence.
type Service struct {
	log      zerolog.Logger
	repo     TransactionRepository
	holdings HoldingProvider
	bus      *events.Bus
}

// NewService creates a new ledger service
func NewService(repo TransactionRepository, holdings HoldingProvider, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		log:      log.With().Str("service", "ledger").Logger(),
		repo:     repo,
		holdings: holdings,
		bus:      bus,
	}
}

// Append validates and records a new transaction.
//
// Validation happens in three stages: field checks, holding checks, then a
// replay of the holding's history with the candidate merged in. The replay
// catches sells that exceed the quantity held, including the case where a
// backdated transaction would invalidate a sell recorded later.
func (s *Service) Append(tx domain.Transaction) (*domain.Transaction, error) {
	if err := validateFields(&tx); err != nil {
		return nil, err
	}

	holding, err := s.holdings.Get(tx.HoldingID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up holding: %w", err)
	}
	if holding == nil {
		return nil, &domain.NotFoundError{Entity: "holding", ID: tx.HoldingID}
	}
	if !holding.Type.IsTradeable() {
		return nil, &domain.ValidationError{Field: "holding_id", Message: "holding does not support transactions; record snapshots instead"}
	}
	if tx.Currency != holding.Currency {
		return nil, &domain.ValidationError{Field: "currency", Message: fmt.Sprintf("must match holding currency %s", holding.Currency)}
	}

	existing, err := s.repo.ListByHolding(tx.HoldingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	// Precise check for the candidate itself: a sell may not exceed the
	// quantity held strictly before it in the sequence.
	if tx.Action == domain.ActionSell {
		if err := ValidateSell(existing, tx); err != nil {
			return nil, err
		}
	}

	// Full replay with the candidate merged in. The simulated row gets an ID
	// past every existing one and CreatedAt of now, so on same-date ties it
	// sorts after everything already recorded, matching where Create will
	// actually place it.
	sim := tx
	sim.ID = maxID(existing) + 1
	sim.CreatedAt = time.Now().UTC()
	merged := make([]domain.Transaction, 0, len(existing)+1)
	merged = append(merged, existing...)
	merged = append(merged, sim)
	if _, err := ComputePosition(merged); err != nil {
		return nil, fmt.Errorf("transaction conflicts with recorded history: %w", err)
	}

	created, err := s.repo.Create(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.publishChange(created, "recorded")
	return &created, nil
}

// Delete soft-deletes a transaction after verifying the remaining sequence
// still replays cleanly. Deleting a buy that a later sell depends on is
// rejected rather than leaving the ledger overselling.
func (s *Service) Delete(id int64) error {
	tx, err := s.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil {
		return &domain.NotFoundError{Entity: "transaction", ID: fmt.Sprintf("%d", id)}
	}
	if tx.Deleted {
		return nil
	}

	existing, err := s.repo.ListByHolding(tx.HoldingID)
	if err != nil {
		return fmt.Errorf("failed to load transaction history: %w", err)
	}

	remaining := make([]domain.Transaction, 0, len(existing))
	for _, other := range existing {
		if other.ID != id {
			remaining = append(remaining, other)
		}
	}
	if _, err := ComputePosition(remaining); err != nil {
		return fmt.Errorf("cannot delete transaction %d: %w", id, err)
	}

	if err := s.repo.SetDeleted(id, true); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.publishChange(*tx, "deleted")
	return nil
}

// Restore un-deletes a soft-deleted transaction after verifying the merged
// sequence replays cleanly. The row keeps its original CreatedAt and ID, so
// it returns to its original place in the sequence. Restoring a transaction
// that is not deleted is a no-op.
func (s *Service) Restore(id int64) error {
	tx, err := s.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil {
		return &domain.NotFoundError{Entity: "transaction", ID: fmt.Sprintf("%d", id)}
	}
	if !tx.Deleted {
		return nil
	}

	existing, err := s.repo.ListByHolding(tx.HoldingID)
	if err != nil {
		return fmt.Errorf("failed to load transaction history: %w", err)
	}

	restored := *tx
	restored.Deleted = false
	merged := make([]domain.Transaction, 0, len(existing)+1)
	merged = append(merged, existing...)
	merged = append(merged, restored)
	if _, err := ComputePosition(merged); err != nil {
		return fmt.Errorf("cannot restore transaction %d: %w", id, err)
	}

	if err := s.repo.SetDeleted(id, false); err != nil {
		return fmt.Errorf("failed to restore transaction: %w", err)
	}

	s.publishChange(restored, "restored")
	return nil
}

// Position replays a holding's transaction history and returns the derived
// FIFO position.
func (s *Service) Position(holdingID string) (Position, error) {
	holding, err := s.holdings.Get(holdingID)
	if err != nil {
		return Position{}, fmt.Errorf("failed to look up holding: %w", err)
	}
	if holding == nil {
		return Position{}, &domain.NotFoundError{Entity: "holding", ID: holdingID}
	}

	txs, err := s.repo.ListByHolding(holdingID)
	if err != nil {
		return Position{}, fmt.Errorf("failed to load transaction history: %w", err)
	}

	return ComputePosition(txs)
}

// List retrieves the non-deleted transactions of a holding in replay order
func (s *Service) List(holdingID string) ([]domain.Transaction, error) {
	holding, err := s.holdings.Get(holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up holding: %w", err)
	}
	if holding == nil {
		return nil, &domain.NotFoundError{Entity: "holding", ID: holdingID}
	}

	return s.repo.ListByHolding(holdingID)
}

// Recent retrieves the most recent transactions across all holdings
func (s *Service) Recent(limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.ListRecent(limit)
}

// Summary returns transaction counts by action
func (s *Service) Summary() (map[string]int64, error) {
	return s.repo.Summary()
}

func (s *Service) publishChange(tx domain.Transaction, change string) {
	if s.bus == nil {
		return
	}
	data := &events.TransactionEventData{
		ID:        tx.ID,
		HoldingID: tx.HoldingID,
		Action:    string(tx.Action),
		Quantity:  tx.Quantity.String(),
		Date:      tx.Date.Format(dateLayout),
		Change:    change,
	}
	s.bus.Publish(data.EventType(), "ledger", data)
}

func validateFields(tx *domain.Transaction) error {
	if tx.HoldingID == "" {
		return &domain.ValidationError{Field: "holding_id", Message: "is required"}
	}
	if _, err := domain.ParseTransactionAction(string(tx.Action)); err != nil {
		return &domain.ValidationError{Field: "action", Message: err.Error()}
	}
	if tx.Date.IsZero() {
		return &domain.ValidationError{Field: "date", Message: "is required"}
	}
	if !tx.Quantity.IsPositive() {
		return &domain.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if tx.UnitPrice.IsNegative() {
		return &domain.ValidationError{Field: "unit_price", Message: "must not be negative"}
	}
	if tx.Fees.IsNegative() {
		return &domain.ValidationError{Field: "fees", Message: "must not be negative"}
	}
	if _, err := domain.ParseCurrency(string(tx.Currency)); err != nil {
		return &domain.ValidationError{Field: "currency", Message: err.Error()}
	}

	// Dates are stored day-granular; normalize to midnight UTC so replay
	// ordering matches storage.
	y, m, d := tx.Date.UTC().Date()
	tx.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return nil
}

func maxID(txs []domain.Transaction) int64 {
	var max int64
	for _, tx := range txs {
		if tx.ID > max {
			max = tx.ID
		}
	}
	return max
}
