package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadmart/leadgen-cli/internal/leadio"
	"github.com/leadmart/leadgen-cli/internal/model"
	"github.com/leadmart/leadgen-cli/internal/queue"
	"github.com/leadmart/leadgen-cli/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, *queue.CSVQueue, string) {
	t.Helper()
	dir := t.TempDir()
	q := queue.NewCSV(filepath.Join(dir, "orders.csv"))
	verified := filepath.Join(dir, "verified.csv")
	return newRouter(verified, q, nil), q, verified
}

func TestServeHealth(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeSubmitOrder(t *testing.T) {
	r, q, _ := newTestRouter(t)

	body := `{"niche":"plumber","location":"Mumbai","max_count":15,"requester":"form"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "plumber")

	pending, err := q.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "plumber", pending[0].Niche)
	assert.Equal(t, "Mumbai", pending[0].Location)
	assert.Equal(t, 15, pending[0].MaxCount)
	assert.Equal(t, model.OrderStatusPending, pending[0].Status)
	assert.NotEmpty(t, pending[0].ID)
}

func TestServeSubmitOrderBadBody(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeSubmitOrderMissingFields(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"niche":"plumber"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "location")
}

func TestServeListOrdersEmpty(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServeLeadsNotYetRun(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not run yet")
}

func TestServeLeadsDownload(t *testing.T) {
	r, _, verified := newTestRouter(t)
	require.NoError(t, leadio.WriteVerified(verified, []model.VerifiedLead{{
		BusinessName:  "BrightStar",
		Phone:         "555-123-4567",
		Email:         "info@brightstarco.com",
		City:          "Pune",
		Niche:         "salon",
		SchemaVersion: model.SchemaVersion,
	}}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Business Name")
	assert.Contains(t, rec.Body.String(), "BrightStar")
}

func TestServeRunsEndpoint(t *testing.T) {
	dir := t.TempDir()
	q := queue.NewCSV(filepath.Join(dir, "orders.csv"))
	st, err := store.NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))

	_, err = st.CreateRun(context.Background())
	require.NoError(t, err)

	r := newRouter(filepath.Join(dir, "verified.csv"), q, st)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestServeRunsDisabledWithoutStore(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
