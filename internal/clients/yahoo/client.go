// Package yahoo provides market data fetching from the Yahoo Finance chart API.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clientdata"
)

// DefaultBaseURL is the public Yahoo Finance query endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultExchangeRatePair is the USD to CAD currency ticker.
const DefaultExchangeRatePair = "CAD=X"

// Quote holds the market data fields for a single ticker.
// Pointer fields are nil when the provider did not return a usable number.
type Quote struct {
	CurrentPrice     *float64 `json:"current_price"`
	PriceYesterday   *float64 `json:"price_yesterday"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low"`
	Name             string   `json:"name"`
}

// HistoryPoint is a single (date, close) observation.
type HistoryPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// Client fetches quotes, exchange rates, and price history.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Yahoo Finance client.
// baseURL is overridable for tests; empty means DefaultBaseURL.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
	}
}

// chartResponse mirrors the subset of the v8 chart API payload we consume.
// Numeric fields are decoded as interface{} and coerced defensively: the
// provider occasionally returns strings or nulls where numbers are expected.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       map[string]interface{} `json:"meta"`
			Timestamp  []int64                `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches current market data for a ticker.
// Cache-first; on upstream failure a stale cached quote is returned if available.
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	if c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh("quotes", symbol); err == nil && data != nil {
			var cached Quote
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Quote cache hit")
				return &cached, nil
			}
		}
	}

	resp, err := c.fetchChart(symbol, "5d")
	if err != nil {
		if stale := c.staleQuote(symbol); stale != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, using stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	quote := quoteFromChart(resp)
	if quote.CurrentPrice == nil && quote.PriceYesterday == nil {
		// An all-empty quote is as good as a failed fetch
		if stale := c.staleQuote(symbol); stale != nil {
			c.log.Warn().Str("symbol", symbol).Msg("Quote had no usable prices, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("no usable price data for %s", symbol)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("quotes", symbol, quote, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Info().Str("symbol", symbol).Msg("Fetched quote")
	return quote, nil
}

// GetExchangeRate fetches the current rate for a currency ticker (e.g. "CAD=X" for USD->CAD).
// On upstream failure a stale cached rate is returned if available.
func (c *Client) GetExchangeRate(pair string) (float64, error) {
	if c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh("exchange_rates", pair); err == nil && data != nil {
			var cached struct {
				Rate float64 `json:"rate"`
			}
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("pair", pair).Float64("rate", cached.Rate).Msg("Rate cache hit")
				return cached.Rate, nil
			}
		}
	}

	resp, err := c.fetchChart(pair, "1d")
	if err != nil {
		if rate, ok := c.staleRate(pair); ok {
			c.log.Warn().Err(err).Str("pair", pair).Float64("rate", rate).Msg("Rate fetch failed, using stale cached rate")
			return rate, nil
		}
		return 0, err
	}

	rate := rateFromChart(resp)
	if rate == nil {
		if stale, ok := c.staleRate(pair); ok {
			c.log.Warn().Str("pair", pair).Float64("rate", stale).Msg("No usable rate in response, using stale cached rate")
			return stale, nil
		}
		return 0, fmt.Errorf("no usable rate data for %s", pair)
	}

	if c.cacheRepo != nil {
		cached := struct {
			Rate float64 `json:"rate"`
		}{Rate: *rate}
		if err := c.cacheRepo.Store("exchange_rates", pair, cached, clientdata.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("pair", pair).Msg("Failed to cache exchange rate")
		}
	}

	c.log.Info().Str("pair", pair).Float64("rate", *rate).Msg("Fetched rate")
	return *rate, nil
}

// GetYearlyHistory fetches daily closes for the trailing year.
// Returns an empty slice (not an error) when the provider has no data;
// callers chart what they get.
func (c *Client) GetYearlyHistory(symbol string) ([]HistoryPoint, error) {
	resp, err := c.fetchChart(symbol, "1y")
	if err != nil {
		return nil, err
	}

	if len(resp.Chart.Result) == 0 {
		return []HistoryPoint{}, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []HistoryPoint{}, nil
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]HistoryPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		close := asFloat(closes[i])
		if close == nil {
			// Holidays and half-days produce null closes
			continue
		}
		points = append(points, HistoryPoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *close,
		})
	}

	return points, nil
}

// fetchChart performs a GET against the v8 chart endpoint.
func (c *Client) fetchChart(symbol, rng string) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, url.PathEscape(symbol), rng)

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	// Yahoo rejects requests without a user agent
	req.Header.Set("User-Agent", "investment-tracker/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API returned status %d for %s", resp.StatusCode, symbol)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}

	return &parsed, nil
}

// quoteFromChart assembles a Quote from a 5d chart response.
// The last two non-null closes give current and yesterday prices, with the
// meta fields as fallbacks (mirrors how the provider populates short ranges).
func quoteFromChart(resp *chartResponse) *Quote {
	quote := &Quote{}

	if len(resp.Chart.Result) == 0 {
		return quote
	}
	result := resp.Chart.Result[0]

	var closes []float64
	if len(result.Indicators.Quote) > 0 {
		for _, raw := range result.Indicators.Quote[0].Close {
			if v := asFloat(raw); v != nil {
				closes = append(closes, *v)
			}
		}
	}

	if len(closes) >= 1 {
		quote.CurrentPrice = ptr(closes[len(closes)-1])
	}
	if len(closes) >= 2 {
		quote.PriceYesterday = ptr(closes[len(closes)-2])
	}

	meta := result.Meta
	if quote.CurrentPrice == nil {
		quote.CurrentPrice = asFloat(meta["regularMarketPrice"])
	}
	if quote.PriceYesterday == nil {
		quote.PriceYesterday = asFloat(meta["chartPreviousClose"])
	}
	if quote.PriceYesterday == nil {
		quote.PriceYesterday = asFloat(meta["previousClose"])
	}
	quote.FiftyTwoWeekHigh = asFloat(meta["fiftyTwoWeekHigh"])
	quote.FiftyTwoWeekLow = asFloat(meta["fiftyTwoWeekLow"])

	if name, ok := meta["shortName"].(string); ok && name != "" {
		quote.Name = name
	} else if name, ok := meta["longName"].(string); ok && name != "" {
		quote.Name = name
	}

	return quote
}

// rateFromChart extracts a usable rate from a 1d chart response.
func rateFromChart(resp *chartResponse) *float64 {
	if len(resp.Chart.Result) == 0 {
		return nil
	}
	result := resp.Chart.Result[0]

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if v := asFloat(closes[i]); v != nil {
				return v
			}
		}
	}

	return asFloat(result.Meta["regularMarketPrice"])
}

// asFloat coerces a decoded JSON value into a float pointer.
// Anything that is not a finite number (strings, nulls, objects) yields nil
// rather than an error - bad provider data must never poison stored fields.
func asFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return ptr(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return ptr(f)
		}
	case int:
		return ptr(float64(n))
	case int64:
		return ptr(float64(n))
	}
	return nil
}

func ptr(f float64) *float64 {
	return &f
}

// staleQuote returns a cached quote regardless of expiration, or nil.
func (c *Client) staleQuote(symbol string) *Quote {
	if c.cacheRepo == nil {
		return nil
	}
	data, err := c.cacheRepo.Get("quotes", symbol)
	if err != nil || data == nil {
		return nil
	}
	var cached Quote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	return &cached
}

// staleRate returns a cached rate regardless of expiration.
func (c *Client) staleRate(pair string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}
	data, err := c.cacheRepo.Get("exchange_rates", pair)
	if err != nil || data == nil {
		return 0, false
	}
	var cached struct {
		Rate float64 `json:"rate"`
	}
	if err := json.Unmarshal(data, &cached); err != nil {
		return 0, false
	}
	return cached.Rate, true
}
