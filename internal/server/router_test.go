package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookit-dev/bookit/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	srv := httptest.NewServer(NewRouter(st, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateListClearAppointments(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"title":     "dentist",
		"starts_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"notes":     "bring card",
	})
	resp, err := http.Post(srv.URL+"/appointments", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created store.Appointment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()
	assert.NotZero(t, created.ID)
	assert.Equal(t, "dentist", created.Title)

	resp, err = http.Get(srv.URL + "/appointments")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []store.Appointment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	_ = resp.Body.Close()
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/appointments", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleared map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cleared))
	_ = resp.Body.Close()
	assert.Equal(t, int64(1), cleared["deleted"])
}

func TestCreateRejectsMissingFields(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/appointments", "application/json",
		bytes.NewReader([]byte(`{"notes":"no title"}`)))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListReturnsEmptyArrayNotNull(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/appointments")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.JSONEq(t, "[]", buf.String())
}
