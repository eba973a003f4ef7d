// Package nse is the fetch collaborator for NSE quote data. The exchange
// gates its quote endpoints behind cookies set on the homepage, so the client
// warms a cookie jar before the first quote request and re-warms when the
// session is rejected.
package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/anujk/carrydash/pkg/models"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerSec     float64
	RateBurst      int
	UserAgent      string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.nseindia.com"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 20
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger

	mu     sync.Mutex
	warmed bool
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	cfg = cfg.withDefaults()
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst),
		logger:  logger,
	}
}

// derivativePayload is the slice of /api/quote-derivative we care about: the
// contract list with per-contract metadata.
type derivativePayload struct {
	Stocks []struct {
		Metadata struct {
			InstrumentType string `json:"instrumentType"`
			ExpiryDate     string `json:"expiryDate"`
			LastPrice      any    `json:"lastPrice"`
		} `json:"metadata"`
	} `json:"stocks"`
}

// equityPayload is the slice of /api/quote-equity we care about.
type equityPayload struct {
	PriceInfo struct {
		LastPrice any `json:"lastPrice"`
	} `json:"priceInfo"`
}

// FetchQuotes returns the raw spot quote and the near-month stock-futures
// quote for symbol. Prices and the expiry string are passed through
// untouched; normalization happens downstream.
func (c *Client) FetchQuotes(ctx context.Context, symbol string) (models.RawQuotePair, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.RawQuotePair{}, fetchErr(symbol, err)
	}
	if err := c.warm(ctx); err != nil {
		return models.RawQuotePair{}, fetchErr(symbol, err)
	}

	var deriv derivativePayload
	if err := c.getJSON(ctx, "/api/quote-derivative?symbol="+url.QueryEscape(symbol), &deriv); err != nil {
		return models.RawQuotePair{}, fetchErr(symbol, fmt.Errorf("derivative quote: %w", err))
	}

	var equity equityPayload
	if err := c.getJSON(ctx, "/api/quote-equity?symbol="+url.QueryEscape(symbol), &equity); err != nil {
		return models.RawQuotePair{}, fetchErr(symbol, fmt.Errorf("equity quote: %w", err))
	}

	fut, ok := nearMonthFuture(deriv)
	if !ok {
		return models.RawQuotePair{}, fetchErr(symbol, fmt.Errorf("no listed stock futures contract"))
	}
	if equity.PriceInfo.LastPrice == nil {
		return models.RawQuotePair{}, fetchErr(symbol, fmt.Errorf("equity quote missing last price"))
	}

	return models.RawQuotePair{
		Symbol:       symbol,
		SpotPrice:    equity.PriceInfo.LastPrice,
		FuturesPrice: fut.lastPrice,
		Expiry:       fut.expiry,
		FetchedAt:    time.Now(),
	}, nil
}

type futureLeg struct {
	lastPrice any
	expiry    string
}

// nearMonthFuture picks the first stock-futures contract in the payload; the
// exchange lists contracts nearest expiry first.
func nearMonthFuture(p derivativePayload) (futureLeg, bool) {
	for _, s := range p.Stocks {
		if !strings.Contains(s.Metadata.InstrumentType, "Futures") {
			continue
		}
		if s.Metadata.LastPrice == nil {
			continue
		}
		return futureLeg{lastPrice: s.Metadata.LastPrice, expiry: s.Metadata.ExpiryDate}, true
	}
	return futureLeg{}, false
}

// warm bootstraps the session cookies from the homepage once per client.
func (c *Client) warm(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cookie bootstrap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cookie bootstrap: status %d", resp.StatusCode)
	}

	c.warmed = true
	c.logger.Debug("NSE session warmed")
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}

	// A rejected session means the cookies went stale; re-warm once and retry.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		c.mu.Lock()
		c.warmed = false
		c.mu.Unlock()
		if err := c.warm(ctx); err != nil {
			return err
		}
		if resp, err = c.get(ctx, path); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.cfg.BaseURL+"/")
}

func fetchErr(symbol string, err error) error {
	return models.NewQuoteError(models.ErrKindFetch, symbol, err)
}
