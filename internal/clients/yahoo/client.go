// Package yahoo provides a Yahoo Finance quote client with persistent caching.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/steward/internal/clientdata"
	"github.com/aristath/steward/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultRateLimit bounds outbound requests per second. Yahoo throttles
// aggressively; the refresh job fans out over every tradeable holding, so
// the limiter is what keeps a large portfolio from tripping a ban.
const DefaultRateLimit = 5

// Client is a Yahoo Finance chart API client.
// Quotes are cached persistently via clientdata so the aggregator can read
// last-known prices without touching the network.
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", "yahoo").Logger(),
	}
}

// yahooChartResponse is the subset of the chart API response we consume.
// The meta block carries the live quote; we never need the candle arrays.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// FetchQuote fetches a live quote from Yahoo Finance and caches it.
// This is the forced-refresh path used by the price refresh job; it always
// hits the network (subject to the rate limiter).
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.PriceQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "1d")

	reqURL := c.baseURL + "/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	meta := result.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("no market price for symbol %s", symbol)
	}

	currency, err := domain.ParseCurrency(meta.Currency)
	if err != nil {
		return nil, fmt.Errorf("symbol %s quoted in unsupported currency %q", symbol, meta.Currency)
	}

	quote := &domain.PriceQuote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency:  currency,
		FetchedAt: time.Now().UTC(),
	}

	prevClose := meta.PreviousClose
	if prevClose == 0 {
		prevClose = meta.ChartPreviousClose
	}
	if prevClose > 0 {
		quote.ChangeAbs = meta.RegularMarketPrice - prevClose
		quote.ChangePercent = quote.ChangeAbs / prevClose * 100
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("current_prices", symbol, quote, clientdata.TTLCurrentPrice); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("price", quote.Price.String()).
		Str("currency", string(quote.Currency)).
		Msg("Fetched quote")

	return quote, nil
}

// GetQuote returns a quote cache-first: a fresh cached quote short-circuits,
// otherwise the network is tried, and a stale cached quote is the fallback
// when the fetch fails (stale data > no data).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.PriceQuote, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("current_prices", symbol)
		if err == nil && data != nil {
			var quote domain.PriceQuote
			if err := json.Unmarshal(data, &quote); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Cache hit")
				return &quote, nil
			}
		}
	}

	quote, err := c.FetchQuote(ctx, symbol)
	if err != nil {
		if stale, ok := c.staleFromCache(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Time("fetched_at", stale.FetchedAt).
				Msg("API failed, using stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	return quote, nil
}

// CachedQuote returns the last cached quote for a symbol, fresh or stale,
// without ever touching the network. Returns domain.ErrNoData when the
// symbol has never been cached - callers distinguish "no price at all"
// from "price is old" via the quote's FetchedAt.
func (c *Client) CachedQuote(symbol string) (*domain.PriceQuote, error) {
	if c.cacheRepo == nil {
		return nil, domain.ErrNoData
	}

	data, err := c.cacheRepo.Get("current_prices", symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to read price cache: %w", err)
	}
	if data == nil {
		return nil, domain.ErrNoData
	}

	var quote domain.PriceQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode cached quote: %w", err)
	}

	return &quote, nil
}

// staleFromCache retrieves a cached quote even if expired.
func (c *Client) staleFromCache(symbol string) (*domain.PriceQuote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("current_prices", symbol)
	if err != nil || data == nil {
		return nil, false
	}

	var quote domain.PriceQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, false
	}

	return &quote, true
}
