package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowedit/internal/sqlite"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Backend) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	_, err := b.Seed([]types.Record{
		types.NewRecord("1", "name", "Alpha", "value", "01"),
		types.NewRecord("2", "name", "Beta", "value", "02"),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(New(nil, b).Handler())
	t.Cleanup(srv.Close)
	return srv, b
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestAPI_List(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/data", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []types.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "Alpha", records[0].Get("name"))
	assert.Equal(t, "2", records[1].ID)
}

func TestAPI_Get(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/data/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec types.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, types.NewRecord("2", "name", "Beta", "value", "02"), rec)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/data/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error":"not_found"`)
}

func TestAPI_Patch(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantName   string
	}{
		{"full record", "/api/data/1", `{"id":"1","name":"A2","value":"01"}`, http.StatusOK, "A2"},
		{"id omitted", "/api/data/1", `{"name":"A3"}`, http.StatusOK, "A3"},
		{"numeric id", "/api/data/1", `{"id":1,"name":"A4"}`, http.StatusOK, "A4"},
		{"id mismatch", "/api/data/1", `{"id":"2","name":"X"}`, http.StatusBadRequest, ""},
		{"non-string field", "/api/data/1", `{"name":5}`, http.StatusBadRequest, ""},
		{"not an object", "/api/data/1", `["name"]`, http.StatusBadRequest, ""},
		{"malformed", "/api/data/1", `{"name":`, http.StatusBadRequest, ""},
		{"trailing value", "/api/data/1", `{"name":"A"} {}`, http.StatusBadRequest, ""},
		{"unknown id", "/api/data/404", `{"name":"X"}`, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			resp, body := do(t, http.MethodPatch, srv.URL+tt.path, tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
				return
			}
			var rec types.Record
			require.NoError(t, json.Unmarshal(body, &rec))
			assert.Equal(t, "1", rec.ID)
			assert.Equal(t, tt.wantName, rec.Get("name"))
			assert.Equal(t, "01", rec.Get("value"), "fields not named keep their value")
		})
	}
}

func TestAPI_PatchPersists(t *testing.T) {
	srv, b := newTestServer(t)

	resp, _ := do(t, http.MethodPatch, srv.URL+"/api/data/2", `{"value":"99"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tbl, err := b.Records()
	require.NoError(t, err)
	rec, err := tbl.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "99", rec.Get("value"))
	assert.Equal(t, "Beta", rec.Get("name"))
}

func TestAPI_Create(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/data", `{"name":"Gamma","value":"03"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec types.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Gamma", rec.Get("name"))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/data", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []types.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 3)
	assert.Equal(t, rec.ID, records[2].ID, "new records append to the display order")

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/data", `{"name":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Health(t *testing.T) {
	srv, b := newTestServer(t)

	resp, _ := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	require.NoError(t, b.Detach())
	resp, _ = do(t, http.MethodGet, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, srv.URL+"/api/data", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

type brokenTable struct{ types.Table }

func (brokenTable) Fetch() ([]types.Record, error) { return nil, errors.New("disk on fire") }

type brokenBackend struct{ types.Backend }

func (brokenBackend) Records() (types.Table, error) { return brokenTable{}, nil }

func TestAPI_InternalError(t *testing.T) {
	srv := httptest.NewServer(New(nil, brokenBackend{}).Handler())
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/api/data", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), `"error":"internal_error"`)
	assert.NotContains(t, string(body), "disk on fire")
}
