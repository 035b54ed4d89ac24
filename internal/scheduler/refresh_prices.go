package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
)

// HoldingLister supplies the tradeable holdings whose quotes get refreshed
type HoldingLister interface {
	ListTradeable() ([]domain.Holding, error)
}

// QuoteSource fetches a quote, cache-first with stale fallback
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*domain.PriceQuote, error)
}

// PriceRecorder appends daily price rows to the history database
type PriceRecorder interface {
	RecordPrice(symbol string, date time.Time, price decimal.Decimal, currency domain.Currency) error
}

// priceFetchWorkers bounds the quote fan-out. The yahoo client's rate
// limiter still governs the actual request pace; this just caps how many
// fetches wait on it concurrently.
const priceFetchWorkers = 4

// RefreshPricesJob refreshes quotes for every non-dormant tradeable holding
// and appends the day's price to the history series. Fetches fan out across
// a bounded worker pool; one failing symbol never fails the batch.
type RefreshPricesJob struct {
	holdings HoldingLister
	quotes   QuoteSource
	history  PriceRecorder
	bus      *events.Bus
	log      zerolog.Logger
}

// RefreshPricesConfig holds configuration for the price refresh job
type RefreshPricesConfig struct {
	Holdings HoldingLister
	Quotes   QuoteSource
	History  PriceRecorder
	Bus      *events.Bus
	Log      zerolog.Logger
}

// NewRefreshPricesJob creates a new price refresh job
func NewRefreshPricesJob(cfg RefreshPricesConfig) *RefreshPricesJob {
	return &RefreshPricesJob{
		holdings: cfg.Holdings,
		quotes:   cfg.Quotes,
		history:  cfg.History,
		bus:      cfg.Bus,
		log:      cfg.Log.With().Str("job", "refresh_prices").Logger(),
	}
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Run refreshes all tradeable holding quotes
func (j *RefreshPricesJob) Run() error {
	holdings, err := j.holdings.ListTradeable()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	symbols := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		if holding.Dormant || holding.Symbol == "" {
			continue
		}
		symbols = append(symbols, holding.Symbol)
	}

	type fetchResult struct {
		symbol string
		quote  *domain.PriceQuote
		err    error
	}

	jobs := make(chan string, len(symbols))
	results := make(chan fetchResult, len(symbols))

	workers := priceFetchWorkers
	if len(symbols) < workers {
		workers = len(symbols)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				quote, err := j.quotes.GetQuote(ctx, symbol)
				results <- fetchResult{symbol: symbol, quote: quote, err: err}
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)

	wg.Wait()
	close(results)

	// History writes and event publishes stay on this goroutine so the
	// sqlite connection sees them one at a time.
	refreshed := 0
	failed := 0
	for result := range results {
		if result.err != nil {
			failed++
			j.log.Warn().
				Err(result.err).
				Str("symbol", result.symbol).
				Msg("Failed to refresh quote")
			continue
		}
		quote := result.quote

		if j.history != nil {
			if err := j.history.RecordPrice(quote.Symbol, quote.FetchedAt, quote.Price, quote.Currency); err != nil {
				j.log.Warn().
					Err(err).
					Str("symbol", quote.Symbol).
					Msg("Failed to record price history")
			}
		}

		if j.bus != nil {
			price, _ := quote.Price.Float64()
			data := &events.PriceUpdatedData{
				Symbol:   quote.Symbol,
				Price:    price,
				Currency: string(quote.Currency),
			}
			j.bus.Publish(data.EventType(), "scheduler", data)
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("failed", failed).
		Msg("Price refresh finished")

	return nil
}
