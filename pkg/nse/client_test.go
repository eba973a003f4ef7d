package nse_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujk/carrydash/pkg/models"
	"github.com/anujk/carrydash/pkg/normalize"
	"github.com/anujk/carrydash/pkg/nse"
)

const derivativeBody = `{
	"stocks": [
		{"metadata": {"instrumentType": "Stock Options", "expiryDate": "26-Jun-2025", "lastPrice": 12.5}},
		{"metadata": {"instrumentType": "Stock Futures", "expiryDate": "26-Jun-2025", "lastPrice": 1515.00}},
		{"metadata": {"instrumentType": "Stock Futures", "expiryDate": "31-Jul-2025", "lastPrice": 1522.40}}
	]
}`

const equityBody = `{"priceInfo": {"lastPrice": 1500.25}}`

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newServer(t *testing.T, deriv, equity string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "session"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/quote-derivative", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(deriv))
	})
	mux.HandleFunc("/api/quote-equity", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(equity))
	})
	return httptest.NewServer(mux)
}

func TestFetchQuotes(t *testing.T) {
	srv := newServer(t, derivativeBody, equityBody)
	defer srv.Close()

	c := nse.NewClient(nse.Config{BaseURL: srv.URL}, testLogger())
	raw, err := c.FetchQuotes(context.Background(), "INFY")
	require.NoError(t, err)

	assert.Equal(t, "INFY", raw.Symbol)
	assert.Equal(t, "26-Jun-2025", raw.Expiry)

	// Near-month futures row wins over options and far-month contracts, and
	// raw numbers survive as json.Number for the normalizer.
	fut, err := normalize.Price(raw.FuturesPrice)
	require.NoError(t, err)
	assert.Equal(t, "1515", fut.String())
	spot, err := normalize.Price(raw.SpotPrice)
	require.NoError(t, err)
	assert.Equal(t, "1500.25", spot.String())
	assert.IsType(t, json.Number(""), raw.SpotPrice)
}

func TestFetchQuotesNoFuturesContract(t *testing.T) {
	onlyOptions := `{"stocks": [{"metadata": {"instrumentType": "Stock Options", "expiryDate": "26-Jun-2025", "lastPrice": 12.5}}]}`
	srv := newServer(t, onlyOptions, equityBody)
	defer srv.Close()

	c := nse.NewClient(nse.Config{BaseURL: srv.URL}, testLogger())
	_, err := c.FetchQuotes(context.Background(), "NOFUT")
	require.Error(t, err)

	var qe *models.QuoteError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, models.ErrKindFetch, qe.Kind)
	assert.Contains(t, err.Error(), "no listed stock futures contract")
}

func TestFetchQuotesRewarmsRejectedSession(t *testing.T) {
	var derivCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/quote-derivative", func(w http.ResponseWriter, r *http.Request) {
		derivCalls++
		if derivCalls == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(derivativeBody))
	})
	mux.HandleFunc("/api/quote-equity", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(equityBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := nse.NewClient(nse.Config{BaseURL: srv.URL}, testLogger())
	raw, err := c.FetchQuotes(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, 2, derivCalls)
	assert.Equal(t, "26-Jun-2025", raw.Expiry)
}

func TestFetchQuotesServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := nse.NewClient(nse.Config{BaseURL: srv.URL}, testLogger())
	_, err := c.FetchQuotes(context.Background(), "INFY")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindFetch, models.KindOf(err))
}

func TestFetchQuotesContextCancelled(t *testing.T) {
	srv := newServer(t, derivativeBody, equityBody)
	defer srv.Close()

	c := nse.NewClient(nse.Config{BaseURL: srv.URL}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchQuotes(ctx, "INFY")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindFetch, models.KindOf(err))
}
