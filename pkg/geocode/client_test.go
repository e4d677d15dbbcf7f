package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunward-group/rooftop-cli/internal/resilience"
)

const matchResponse = `{
	"result": {
		"addressMatches": [
			{
				"coordinates": {"x": -122.4194, "y": 37.7749},
				"matchedAddress": "123 MAIN ST, SAN FRANCISCO, CA, 94105"
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000),
	)
}

func TestGeocode_Match(t *testing.T) {
	var gotAddress string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		assert.Equal(t, "Public_AR_Current", r.URL.Query().Get("benchmark"))
		w.Write([]byte(matchResponse)) //nolint:errcheck
	})

	res, err := c.Geocode(context.Background(), "123 Main St, San Francisco, CA")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 37.7749, res.Latitude, 0.0001)
	assert.InDelta(t, -122.4194, res.Longitude, 0.0001)
	assert.Equal(t, "123 MAIN ST, SAN FRANCISCO, CA, 94105", res.MatchedAddress)
	assert.Equal(t, "123 Main St, San Francisco, CA", gotAddress)
}

func TestGeocode_NoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"addressMatches": []}}`)) //nolint:errcheck
	})

	res, err := c.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_EmptyAddress(t *testing.T) {
	c := NewClient()
	_, err := c.Geocode(context.Background(), "   ")
	assert.ErrorContains(t, err, "empty address")
}

func TestGeocode_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(matchResponse)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(1000))
	cc := c.(*censusClient)
	cc.retry = resilience.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	res, err := c.Geocode(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeocode_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Geocode(context.Background(), "123 Main St")
	assert.ErrorContains(t, err, "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json")) //nolint:errcheck
	})

	_, err := c.Geocode(context.Background(), "123 Main St")
	assert.ErrorContains(t, err, "parse response")
}
