package holdings

import (
	"fmt"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/rs/zerolog"
)

// Service validates and applies holding changes
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new holdings service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "holdings").Logger(),
	}
}

// CreateInput carries the fields of a new holding
type CreateInput struct {
	Name     string
	Type     string
	Currency string
	Symbol   string
	Exchange string
	Dormant  bool
}

// Create validates and records a new holding
func (s *Service) Create(in CreateInput) (*domain.Holding, error) {
	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	holdingType, err := domain.ParseHoldingType(in.Type)
	if err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if holdingType.IsTradeable() && in.Symbol == "" {
		return nil, &domain.ValidationError{Field: "symbol", Message: "is required for quote-priced holdings"}
	}
	if holdingType.IsSnapshotBased() && in.Symbol != "" {
		return nil, &domain.ValidationError{Field: "symbol", Message: "snapshot-priced holdings have no quote symbol"}
	}

	created, err := s.repo.Create(domain.Holding{
		Name:     in.Name,
		Type:     holdingType,
		Currency: currency,
		Symbol:   in.Symbol,
		Exchange: in.Exchange,
		Dormant:  in.Dormant,
	})
	if err != nil {
		return nil, err
	}

	s.publishChange(created.ID, created.Name, "created")
	return &created, nil
}

// UpdateInput carries the mutable fields of a holding
type UpdateInput struct {
	Name     string
	Symbol   string
	Exchange string
	Dormant  bool
}

// Update changes a holding's mutable fields. Type and currency are fixed at
// creation; a request that tries to change them is rejected upstream by the
// handler not accepting those fields at all.
func (s *Service) Update(id string, in UpdateInput) (*domain.Holding, error) {
	existing, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up holding: %w", err)
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Entity: "holding", ID: id}
	}

	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	if existing.Type.IsTradeable() && in.Symbol == "" {
		return nil, &domain.ValidationError{Field: "symbol", Message: "is required for quote-priced holdings"}
	}

	if err := s.repo.Update(id, in.Name, in.Symbol, in.Exchange, in.Dormant); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload holding: %w", err)
	}

	s.publishChange(id, in.Name, "updated")
	return updated, nil
}

// Get retrieves a non-deleted holding
func (s *Service) Get(id string) (*domain.Holding, error) {
	return s.repo.Get(id)
}

// List returns all non-deleted holdings
func (s *Service) List() ([]domain.Holding, error) {
	return s.repo.ListActive()
}

// Delete soft-deletes a holding. Its transactions and snapshots are left
// untouched so a restore brings the holding back whole.
func (s *Service) Delete(id string) error {
	existing, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("failed to look up holding: %w", err)
	}
	if existing == nil {
		return &domain.NotFoundError{Entity: "holding", ID: id}
	}

	if err := s.repo.SetDeleted(id, true); err != nil {
		return err
	}

	s.publishChange(id, existing.Name, "deleted")
	return nil
}

// Restore un-deletes a soft-deleted holding
func (s *Service) Restore(id string) error {
	existing, err := s.repo.GetAny(id)
	if err != nil {
		return fmt.Errorf("failed to look up holding: %w", err)
	}
	if existing == nil {
		return &domain.NotFoundError{Entity: "holding", ID: id}
	}
	if !existing.Deleted {
		return nil
	}

	if err := s.repo.SetDeleted(id, false); err != nil {
		return err
	}

	s.publishChange(id, existing.Name, "restored")
	return nil
}

func (s *Service) publishChange(id, name, change string) {
	if s.bus == nil {
		return
	}
	data := &events.HoldingChangedData{ID: id, Name: name, Change: change}
	s.bus.Publish(data.EventType(), "holdings", data)
}
