package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunward-group/rooftop-cli/internal/config"
	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/pipeline"
	"github.com/sunward-group/rooftop-cli/internal/store"
)

func newTestMux(t *testing.T, withStore bool) (*http.ServeMux, store.Store) {
	t.Helper()

	c, err := config.Load()
	require.NoError(t, err)
	p := pipeline.New(c, nil)

	var st store.Store
	if withStore {
		st, err = store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "serve.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() }) //nolint:errcheck
	}
	return newServeMux(p, st), st
}

func TestServe_Health(t *testing.T) {
	mux, _ := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Analyze(t *testing.T) {
	mux, st := newTestMux(t, true)

	body := `{"name": "api-site", "latitude": 37.77, "longitude": -122.42}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var bundle model.AnalysisBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, 43, bundle.PanelLayout.PanelCount)
	assert.True(t, bundle.FallbackMode)

	// The run was persisted with its result.
	runs, err := st.ListRuns(context.Background(), store.RunFilter{SiteName: "api-site"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
}

func TestServe_AnalyzeWithoutStore(t *testing.T) {
	mux, _ := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"name": "x"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_AnalyzeBadBody(t *testing.T) {
	mux, _ := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_AnalyzeUnknownPanel(t *testing.T) {
	mux, _ := newTestMux(t, false)

	body := `{"name": "x", "panel_type": "fusion_reactor"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServe_Runs(t *testing.T) {
	mux, st := newTestMux(t, true)

	_, err := st.CreateRun(context.Background(), model.Site{Name: "listed"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?site=listed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "listed", runs[0].Site.Name)
}

func TestServe_RunsWithoutStore(t *testing.T) {
	mux, _ := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
