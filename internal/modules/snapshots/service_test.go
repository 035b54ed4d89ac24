package snapshots

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
)

type stubHoldings struct {
	holdings map[string]*domain.Holding
}

func (s *stubHoldings) Get(id string) (*domain.Holding, error) {
	return s.holdings[id], nil
}

func setupService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	holdings := &stubHoldings{holdings: map[string]*domain.Holding{
		"bank-1":  {ID: "bank-1", Name: "Savings", Type: domain.HoldingTypeCash, Currency: domain.CurrencyAUD},
		"loan-1":  {ID: "loan-1", Name: "Mortgage", Type: domain.HoldingTypeDebt, Currency: domain.CurrencyAUD},
		"stock-1": {ID: "stock-1", Name: "CSL", Type: domain.HoldingTypeStock, Currency: domain.CurrencyAUD},
	}}
	bus := events.NewBus(log)
	svc := NewService(NewRepository(setupTestDB(t), log), holdings, bus, log)
	return svc, bus
}

func TestServiceRecordPublishesEvent(t *testing.T) {
	svc, bus := setupService(t)

	var published []*events.Event
	bus.Subscribe(events.SnapshotRecorded, func(e *events.Event) {
		published = append(published, e)
	})

	snap := makeSnapshot("2026-03-14", "12500.5")
	snap.HoldingID = "bank-1"

	recorded, err := svc.Record(snap)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", recorded.Month.Format(monthLayout))

	require.Len(t, published, 1)
	data, ok := published[0].Data.(*events.SnapshotEventData)
	require.True(t, ok)
	assert.Equal(t, "bank-1", data.HoldingID)
	assert.Equal(t, "2026-03-01", data.Month)
	assert.Equal(t, "12500.5", data.Balance)
}

func TestServiceRecordDebtMagnitude(t *testing.T) {
	svc, _ := setupService(t)

	// Debt balances are positive magnitudes; a negative value is rejected.
	snap := makeSnapshot("2026-03-01", "-500000")
	snap.HoldingID = "loan-1"

	_, err := svc.Record(snap)
	assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)

	snap.Balance = dec("500000")
	recorded, err := svc.Record(snap)
	require.NoError(t, err)
	assert.Equal(t, "500000", recorded.Balance.String())
}

func TestServiceRecordValidation(t *testing.T) {
	svc, _ := setupService(t)

	cases := []struct {
		name   string
		mutate func(*domain.Snapshot)
	}{
		{"missing holding id", func(s *domain.Snapshot) { s.HoldingID = "" }},
		{"zero month", func(s *domain.Snapshot) { s.Month = time.Time{} }},
		{"quote-priced holding", func(s *domain.Snapshot) { s.HoldingID = "stock-1" }},
		{"currency mismatch", func(s *domain.Snapshot) { s.Currency = domain.CurrencyUSD }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := makeSnapshot("2026-03-01", "100")
			snap.HoldingID = "bank-1"
			tc.mutate(&snap)

			_, err := svc.Record(snap)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestServiceRecordUnknownHolding(t *testing.T) {
	svc, _ := setupService(t)

	snap := makeSnapshot("2026-03-01", "100")
	snap.HoldingID = "no-such-holding"

	_, err := svc.Record(snap)
	assert.True(t, domain.IsNotFound(err), "expected not-found error, got %v", err)
}
