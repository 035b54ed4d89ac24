package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/events"
)

func TestEventsStreamDeliversPublishedEvents(t *testing.T) {
	bus := events.NewBus(testLog())
	handler := NewEventsStreamHandler(bus, testLog())

	srv := httptest.NewServer(http.HandlerFunc(handler.ServeHTTP))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First frame is the connection acknowledgement; only after it has been
	// written are the bus subscriptions guaranteed to be in place.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "connected")

	bus.Publish(events.PriceUpdated, "scheduler", &events.PriceUpdatedData{
		Symbol:   "VAS.AX",
		Price:    98.21,
		Currency: "AUD",
	})

	found := false
	for !found {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(line, "price_updated") {
			assert.Contains(t, line, "VAS.AX")
			found = true
		}
	}
}

func TestEventsStreamTypeFilter(t *testing.T) {
	bus := events.NewBus(testLog())
	handler := NewEventsStreamHandler(bus, testLog())

	srv := httptest.NewServer(http.HandlerFunc(handler.ServeHTTP))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?types=rates_updated", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "connected")

	// A filtered-out type must not reach the client; the rates event
	// published after it must be the next data frame.
	bus.Publish(events.PriceUpdated, "scheduler", &events.PriceUpdatedData{Symbol: "IVV.AX", Price: 1, Currency: "AUD"})
	bus.Publish(events.RatesUpdated, "scheduler", &events.RatesUpdatedData{Pairs: 2})

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.Contains(line, "data:") {
			continue
		}
		assert.NotContains(t, line, "price_updated")
		if strings.Contains(line, "rates_updated") {
			break
		}
	}
}
