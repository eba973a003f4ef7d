package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujk/carrydash/pkg/marketclock"
	"github.com/anujk/carrydash/pkg/models"
	"github.com/anujk/carrydash/pkg/scanner"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func testServer(t *testing.T, fetch scanner.FetchFunc) *Server {
	t.Helper()

	session, err := marketclock.NewSession("Asia/Kolkata", "09:15", "15:30")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clock := fixedClock{at: time.Date(2025, time.June, 13, 11, 0, 0, 0, loc)}

	scan := scanner.New(fetch, clock, session, scanner.Config{}, logger)
	sched := scanner.NewScheduler(scan, []string{"INFY", "TCS"}, "@every 60s", logger)
	return NewServer(scan, sched, []string{"INFY", "TCS"}, logger, "0")
}

func okFetch(_ context.Context, symbol string) (models.RawQuotePair, error) {
	return models.RawQuotePair{
		Symbol:       symbol,
		SpotPrice:    "1,500.00",
		FuturesPrice: 1515.0,
		Expiry:       "13-Jul-2025",
	}, nil
}

func TestHandleSnapshot(t *testing.T) {
	s := testServer(t, okFetch)
	s.scheduler.Refresh(context.Background())

	rec := httptest.NewRecorder()
	s.handleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var view snapshotView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Rows, 2)
	assert.True(t, view.MarketOpen)
	assert.Empty(t, view.Message)

	row := view.Rows[0]
	assert.Equal(t, "1500.00", row.SpotPrice)
	assert.Equal(t, "1515.00", row.FuturesPrice)
	assert.Equal(t, "15.00", row.Premium)
	assert.Equal(t, "12.17", row.AnnualizedCoCPct)
	assert.Equal(t, "2025-07-13", row.Expiry)
	assert.Equal(t, 30, row.DaysToExpiry)
	assert.True(t, row.IsHighCarry)
}

func TestHandleSnapshotEmptyState(t *testing.T) {
	s := testServer(t, func(_ context.Context, _ string) (models.RawQuotePair, error) {
		return models.RawQuotePair{}, errors.New("unreachable")
	})
	s.scheduler.Refresh(context.Background())

	rec := httptest.NewRecorder()
	s.handleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var view snapshotView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Rows)
	assert.Len(t, view.Failures, 2)
	assert.Equal(t, "no data available", view.Message)
}

func TestHandleRefresh(t *testing.T) {
	s := testServer(t, okFetch)

	rec := httptest.NewRecorder()
	s.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view snapshotView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)

	// Wrong method is rejected.
	rec = httptest.NewRecorder()
	s.handleRefresh(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSymbols(t *testing.T) {
	s := testServer(t, okFetch)

	rec := httptest.NewRecorder()
	s.handleSymbols(rec, httptest.NewRequest(http.MethodGet, "/api/symbols", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"INFY", "TCS"}, body.Symbols)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, okFetch)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
