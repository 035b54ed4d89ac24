package holdings

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
)

func setupService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := events.NewBus(log)
	svc := NewService(NewRepository(setupTestDB(t), log), bus, log)
	return svc, bus
}

func TestServiceCreatePublishesEvent(t *testing.T) {
	svc, bus := setupService(t)

	var published []*events.Event
	bus.Subscribe(events.HoldingChanged, func(e *events.Event) {
		published = append(published, e)
	})

	created, err := svc.Create(CreateInput{
		Name:     "VAS ETF",
		Type:     "etf",
		Currency: "AUD",
		Symbol:   "VAS.AX",
		Exchange: "ASX",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	require.Len(t, published, 1)
	data, ok := published[0].Data.(*events.HoldingChangedData)
	require.True(t, ok)
	assert.Equal(t, created.ID, data.ID)
	assert.Equal(t, "created", data.Change)
}

func TestServiceCreateValidation(t *testing.T) {
	svc, _ := setupService(t)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{Type: "etf", Currency: "AUD", Symbol: "VAS.AX"}},
		{"unknown type", CreateInput{Name: "X", Type: "bond", Currency: "AUD"}},
		{"unsupported currency", CreateInput{Name: "X", Type: "cash", Currency: "EUR"}},
		{"tradeable without symbol", CreateInput{Name: "X", Type: "stock", Currency: "AUD"}},
		{"snapshot type with symbol", CreateInput{Name: "X", Type: "cash", Currency: "AUD", Symbol: "XYZ"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tc.input)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestServiceUpdateKeepsTypeAndCurrency(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(CreateInput{
		Name: "Savings", Type: "cash", Currency: "NZD",
	})
	require.NoError(t, err)

	updated, err := svc.Update(created.ID, UpdateInput{Name: "Emergency fund", Dormant: true})
	require.NoError(t, err)

	assert.Equal(t, "Emergency fund", updated.Name)
	assert.True(t, updated.Dormant)
	assert.Equal(t, domain.HoldingTypeCash, updated.Type)
	assert.Equal(t, domain.CurrencyNZD, updated.Currency)
}

func TestServiceUpdateMissing(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update("no-such-id", UpdateInput{Name: "X"})
	assert.True(t, domain.IsNotFound(err), "expected not-found error, got %v", err)
}

func TestServiceDeleteAndRestore(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(CreateInput{Name: "Savings", Type: "cash", Currency: "AUD"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.Restore(created.ID))

	got, err = svc.Get(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Savings", got.Name)
}

func TestServiceRestoreNotDeletedIsNoop(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(CreateInput{Name: "Savings", Type: "cash", Currency: "AUD"})
	require.NoError(t, err)

	require.NoError(t, svc.Restore(created.ID))

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}
