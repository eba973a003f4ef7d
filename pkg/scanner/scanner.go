// Package scanner orchestrates one scan cycle: concurrent per-symbol fetch,
// normalization, carry computation, and ranking.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/anujk/carrydash/pkg/arb"
	"github.com/anujk/carrydash/pkg/marketclock"
	"github.com/anujk/carrydash/pkg/models"
	"github.com/anujk/carrydash/pkg/normalize"
)

// Fetcher is the provider collaborator: it returns the raw spot and futures
// quotes for one symbol, or fails.
type Fetcher interface {
	FetchQuotes(ctx context.Context, symbol string) (models.RawQuotePair, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(ctx context.Context, symbol string) (models.RawQuotePair, error)

func (f FetchFunc) FetchQuotes(ctx context.Context, symbol string) (models.RawQuotePair, error) {
	return f(ctx, symbol)
}

// Config carries the scan-cycle knobs. MaxWorkers bounds provider
// concurrency only; it has no effect on output ordering.
type Config struct {
	MaxWorkers         int
	FetchTimeout       time.Duration
	HighCarryThreshold decimal.Decimal
	ExpiryLayouts      []string
}

func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 70
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.HighCarryThreshold.IsZero() {
		c.HighCarryThreshold = arb.DefaultHighCarryThreshold
	}
	if len(c.ExpiryLayouts) == 0 {
		c.ExpiryLayouts = normalize.DefaultExpiryLayouts
	}
	return c
}

type Scanner struct {
	fetcher Fetcher
	clock   marketclock.Clock
	session marketclock.Session
	cfg     Config
	logger  *logrus.Logger

	mu     sync.RWMutex
	latest models.CycleResult
}

func New(fetcher Fetcher, clock marketclock.Clock, session marketclock.Session, cfg Config, logger *logrus.Logger) *Scanner {
	return &Scanner{
		fetcher: fetcher,
		clock:   clock,
		session: session,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Scan runs one full cycle over the given symbols. Each symbol is fetched
// independently under its own timeout; a failure is recorded and skipped,
// never aborting the batch. The returned result is ranked and also retained
// as the latest snapshot.
func (s *Scanner) Scan(ctx context.Context, symbols []string) models.CycleResult {
	asOf := s.clock.Now()

	var (
		mu       sync.Mutex
		rows     []models.ArbitrageRow
		failures []models.FailureNotice
	)

	sem := make(chan struct{}, s.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			row, err := s.processSymbol(ctx, symbol, asOf)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, models.FailureNotice{
					Symbol:  normalize.Symbol(symbol),
					Kind:    models.KindOf(err),
					Message: err.Error(),
				})
				return
			}
			rows = append(rows, row)
		}(symbol)
	}
	wg.Wait()

	result := models.CycleResult{
		Rows:       arb.Rank(rows, s.cfg.HighCarryThreshold),
		Failures:   failures,
		AsOf:       asOf,
		MarketOpen: s.session.IsOpen(asOf),
	}

	s.logger.WithFields(logrus.Fields{
		"symbols":  len(symbols),
		"rows":     len(result.Rows),
		"failures": len(result.Failures),
	}).Info("Scan cycle complete")

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	return result
}

// Latest returns the snapshot from the most recent completed cycle.
func (s *Scanner) Latest() models.CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scanner) processSymbol(ctx context.Context, rawSymbol string, asOf time.Time) (models.ArbitrageRow, error) {
	symbol := normalize.Symbol(rawSymbol)

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	raw, err := s.fetcher.FetchQuotes(fctx, symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Fetch failed")
		return models.ArbitrageRow{}, models.NewQuoteError(models.KindOf(err), symbol, err)
	}

	spotPrice, err := normalize.Price(raw.SpotPrice)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Spot price rejected")
		return models.ArbitrageRow{}, err
	}
	futPrice, err := normalize.Price(raw.FuturesPrice)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Futures price rejected")
		return models.ArbitrageRow{}, err
	}
	expiry, err := normalize.Expiry(raw.Expiry, s.cfg.ExpiryLayouts)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Expiry rejected")
		return models.ArbitrageRow{}, err
	}

	spot := models.Quote{Symbol: symbol, Price: spotPrice, Kind: models.KindSpot}
	future := models.Quote{Symbol: symbol, Price: futPrice, Kind: models.KindFuture, Expiry: expiry}

	row, err := arb.Compute(spot, future, asOf)
	if err != nil {
		// An invalid pair at this point is a wiring defect, not a data
		// problem. Log it loudly but keep the batch alive.
		s.logger.WithError(err).WithField("symbol", symbol).Error("Quote pair rejected by calculator")
		return models.ArbitrageRow{}, err
	}
	return row, nil
}
