package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowedit/internal/server"
	"github.com/mesh-intelligence/rowedit/internal/sqlite"
	"github.com/mesh-intelligence/rowedit/pkg/rowedit"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

func TestNew_RejectsBadBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"empty", ""},
		{"no scheme", "localhost:8080"},
		{"ftp", "ftp://example.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL, 0)
			assert.Error(t, err)
		})
	}
}

func TestUpdate_SendsPatch(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","name":"AlphaEdited","value":"01","owner":"ops"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", time.Second)
	require.NoError(t, err)

	rec, err := c.Update(context.Background(), "1", map[string]string{"name": "AlphaEdited", "value": "01"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/data/1", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, map[string]any{"id": "1", "name": "AlphaEdited", "value": "01"}, gotBody)
	assert.Equal(t, types.NewRecord("1", "name", "AlphaEdited", "value", "01", "owner", "ops"), rec)
}

func TestUpdate_EscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"id":"a/b"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.Update(context.Background(), "a/b", nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/data/a%2Fb", gotPath)
}

func TestUpdate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantReason string
	}{
		{"server error with code", http.StatusInternalServerError, `{"error":"internal_error","request_id":"x"}`, 500, "internal_error"},
		{"not found", http.StatusNotFound, `{"error":"not_found"}`, 404, "not_found"},
		{"plain text body", http.StatusBadGateway, "bad gateway\n", 502, "bad gateway"},
		{"malformed success body", http.StatusOK, `{"name":`, 200, "malformed response"},
		{"success body without id", http.StatusOK, `{"name":"x"}`, 200, "malformed response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL, time.Second)
			require.NoError(t, err)

			_, err = c.Update(context.Background(), "1", map[string]string{"name": "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrRemoteUpdateFailed))

			var ue *types.UpdateError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, "1", ue.ID)
			assert.Equal(t, tt.wantStatus, ue.Status)
			assert.Equal(t, tt.wantReason, ue.Reason)
		})
	}
}

func TestUpdate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)

	_, err = c.Update(context.Background(), "1", nil)
	var ue *types.UpdateError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 0, ue.Status)
	assert.NotNil(t, ue.Err)
}

func TestUpdate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = c.Update(context.Background(), "1", nil)
	assert.ErrorIs(t, err, types.ErrRemoteUpdateFailed)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/data" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","name":"Alpha"},{"id":2,"name":"Beta"}]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{
		types.NewRecord("1", "name", "Alpha"),
		types.NewRecord("2", "name", "Beta"),
	}, records)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestFetch_CallersShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`[{"id":"1","name":"Alpha"}]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx)
		first <- err
	}()
	<-started

	// The first caller gives up; the request it started keeps running.
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	type result struct {
		records []types.Record
		err     error
	}
	second := make(chan result, 1)
	go func() {
		records, err := c.Fetch(context.Background())
		second <- result{records, err}
	}()
	time.Sleep(100 * time.Millisecond)
	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, []types.Record{types.NewRecord("1", "name", "Alpha")}, res.records)
	assert.Equal(t, int32(1), hits.Load())
}

// TestEditor_CommitsThroughServer runs an edit session against the real
// API over a sqlite store.
func TestEditor_CommitsThroughServer(t *testing.T) {
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	_, err := b.Seed(sqlite.SampleRecords())
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(nil, b).Handler())
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	rows, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ed, err := rowedit.Open(types.EditorConfig{Fields: types.DefaultSchema}, c, rows)
	require.NoError(t, err)
	defer ed.Close()

	_, err = ed.StartEdit("1")
	require.NoError(t, err)
	_, err = ed.ChangeField("name", "AlphaEdited")
	require.NoError(t, err)
	st, err := ed.Commit(context.Background())
	require.NoError(t, err)

	assert.False(t, st.Open)
	assert.Empty(t, st.Error)
	assert.Equal(t, "AlphaEdited", ed.Snapshot()[0].Get("name"))

	tbl, err := b.Records()
	require.NoError(t, err)
	stored, err := tbl.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "AlphaEdited", stored.Get("name"))
	assert.Equal(t, "01", stored.Get("value"))

	// A detached store answers 503, which becomes the session error while
	// the session stays open.
	require.NoError(t, b.Detach())
	_, err = ed.StartEdit("2")
	require.NoError(t, err)
	st, err = ed.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Open)
	assert.Contains(t, st.Error, "status 503")
	assert.Equal(t, "Beta", ed.Snapshot()[1].Get("name"))
}

func TestGetAndCreate(t *testing.T) {
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	_, err := b.Seed(sqlite.SampleRecords())
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(nil, b).Handler())
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := c.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Beta", rec.Get("name"))

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	created, err := c.Create(ctx, map[string]string{"name": "Gamma", "value": "03"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}
