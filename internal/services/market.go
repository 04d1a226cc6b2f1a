package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

var (
	errMissingAPIKey = errors.New("API key is not configured")
	errRateLimited   = errors.New("rate limit reached")
	errNoQuote       = errors.New("no quote returned")
)

// QuoteCache stores successful quotes between dashboard requests.
type QuoteCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error
}

// MarketConfig configures the quote providers.
type MarketConfig struct {
	ExchangeURL  string
	ExchangeKey  string
	StockURL     string
	StockKey     string
	BaseCurrency string
	CacheTTL     time.Duration
}

// MarketDataService fetches currency rates and stock prices over REST.
// Every requested symbol yields one entry; failures become the entry's Error.
type MarketDataService struct {
	cfg        MarketConfig
	cache      QuoteCache
	httpClient *http.Client
	log        *slog.Logger
}

// NewMarketDataService creates a MarketDataService. cache may be nil.
func NewMarketDataService(cfg MarketConfig, cache QuoteCache, logger *slog.Logger) *MarketDataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketDataService{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

// CurrencyRates returns the price of one unit of each currency in the base currency.
func (s *MarketDataService) CurrencyRates(ctx context.Context, currencies []string) []models.CurrencyRate {
	out := make([]models.CurrencyRate, len(currencies))
	s.fanOut(len(currencies), func(i int) {
		code := strings.ToUpper(currencies[i])
		rate, err := s.cached(ctx, "fx:"+code+":"+s.cfg.BaseCurrency, func() (decimal.Decimal, error) {
			return s.fetchRate(ctx, code)
		})
		out[i] = models.CurrencyRate{Currency: code}
		if err != nil {
			s.log.Warn("currency rate lookup failed", "currency", code, "error", err)
			out[i].Error = err.Error()
			return
		}
		out[i].Rate = &rate
	})
	return out
}

// StockPrices returns the latest price of each ticker.
func (s *MarketDataService) StockPrices(ctx context.Context, stocks []string) []models.StockPrice {
	out := make([]models.StockPrice, len(stocks))
	s.fanOut(len(stocks), func(i int) {
		symbol := strings.ToUpper(stocks[i])
		price, err := s.cached(ctx, "stock:"+symbol, func() (decimal.Decimal, error) {
			return s.fetchStock(ctx, symbol)
		})
		out[i] = models.StockPrice{Stock: symbol}
		if err != nil {
			s.log.Warn("stock price lookup failed", "stock", symbol, "error", err)
			out[i].Error = err.Error()
			return
		}
		out[i].Price = &price
	})
	return out
}

func (s *MarketDataService) fanOut(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// cached serves key from the cache when present and stores fresh successes.
// Cache failures are logged and otherwise ignored.
func (s *MarketDataService) cached(ctx context.Context, key string, fetch func() (decimal.Decimal, error)) (decimal.Decimal, error) {
	if s.cache != nil {
		v, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("quote cache read failed", "key", key, "error", err)
		} else if ok {
			return v, nil
		}
	}

	v, err := fetch()
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, s.cfg.CacheTTL); err != nil {
			s.log.Warn("quote cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

type exchangeResponse struct {
	Success *bool                      `json:"success"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Message string                     `json:"message"`
	Error   *struct {
		Info string `json:"info"`
	} `json:"error"`
}

func (s *MarketDataService) fetchRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if s.cfg.ExchangeKey == "" {
		return decimal.Zero, errMissingAPIKey
	}
	if currency == s.cfg.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}

	q := url.Values{}
	q.Set("base", currency)
	q.Set("symbols", s.cfg.BaseCurrency)
	endpoint := strings.TrimRight(s.cfg.ExchangeURL, "/") + "/latest?" + q.Encode()

	var body exchangeResponse
	if err := s.getJSON(ctx, endpoint, map[string]string{"apikey": s.cfg.ExchangeKey}, &body); err != nil {
		return decimal.Zero, err
	}
	if body.Success != nil && !*body.Success {
		if body.Error != nil && body.Error.Info != "" {
			return decimal.Zero, errors.New(body.Error.Info)
		}
		return decimal.Zero, errNoQuote
	}
	if body.Message != "" {
		return decimal.Zero, errors.New(body.Message)
	}

	rate, ok := body.Rates[s.cfg.BaseCurrency]
	if !ok {
		return decimal.Zero, errNoQuote
	}
	return rate.Round(4), nil
}

type globalQuoteResponse struct {
	Quote       map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	ErrorText   string            `json:"Error Message"`
}

func (s *MarketDataService) fetchStock(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.cfg.StockKey == "" {
		return decimal.Zero, errMissingAPIKey
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", s.cfg.StockKey)
	endpoint := strings.TrimRight(s.cfg.StockURL, "/") + "/query?" + q.Encode()

	var body globalQuoteResponse
	if err := s.getJSON(ctx, endpoint, nil, &body); err != nil {
		return decimal.Zero, err
	}
	switch {
	case body.Note != "" || body.Information != "":
		return decimal.Zero, errRateLimited
	case body.ErrorText != "":
		return decimal.Zero, errors.New(body.ErrorText)
	}

	raw, ok := body.Quote["05. price"]
	if !ok {
		return decimal.Zero, errNoQuote
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price.Round(2), nil
}

func (s *MarketDataService) getJSON(ctx context.Context, endpoint string, headers map[string]string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
