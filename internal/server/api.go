// Package server exposes the authoritative record table over HTTP. PATCH
// /api/data/{id} is the remote update call the edit session commits through.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/rowedit/internal/httpserver"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Service is the name reported by the health endpoints and request logs.
const Service = "rowedit"

const maxBodyBytes = 1 << 20

var errIDMismatch = errors.New("body id does not match path id")

type API struct {
	logger  *slog.Logger
	backend types.Backend
}

// New returns an API serving the records table of an attached backend.
func New(logger *slog.Logger, backend types.Backend) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &API{logger: logger, backend: backend}
}

// Handler returns the routed API wrapped in the request middleware.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Live(Service))
	mux.HandleFunc("GET /readyz", httpserver.Ready(Service, 0, httpserver.Check{
		Name: "store",
		Run: func(ctx context.Context) error {
			return api.backend.Ping(ctx)
		},
	}))
	api.Register(mux)
	return httpserver.Wrap(api.logger, mux)
}

func (api *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/data", api.handleList)
	mux.HandleFunc("POST /api/data", api.handleCreate)
	mux.HandleFunc("GET /api/data/{id}", api.handleGet)
	mux.HandleFunc("PATCH /api/data/{id}", api.handlePatch)
}

func (api *API) handleList(w http.ResponseWriter, r *http.Request) {
	tbl, ok := api.table(w, r)
	if !ok {
		return
	}
	records, err := tbl.Fetch()
	if err != nil {
		api.fail(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, records)
}

func (api *API) handleGet(w http.ResponseWriter, r *http.Request) {
	tbl, ok := api.table(w, r)
	if !ok {
		return
	}
	rec, err := tbl.Get(r.PathValue("id"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, rec)
}

func (api *API) handlePatch(w http.ResponseWriter, r *http.Request) {
	tbl, ok := api.table(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	fields, err := decodePatch(r, id)
	if err != nil {
		api.logger.Warn("rejecting patch", "id", id, "error", err)
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	rec, err := tbl.Patch(id, fields)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.logger.Info("record patched", "id", rec.ID, "fields", len(fields))
	httpserver.WriteJSON(w, http.StatusOK, rec)
}

func (api *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	tbl, ok := api.table(w, r)
	if !ok {
		return
	}
	raw, _, err := decodeObject(r)
	if err != nil {
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	delete(raw, "id")
	fields, err := stringFields(raw)
	if err != nil {
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	rec, err := tbl.Create(fields)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.logger.Info("record created", "id", rec.ID)
	httpserver.WriteJSON(w, http.StatusCreated, rec)
}

func (api *API) table(w http.ResponseWriter, r *http.Request) (types.Table, bool) {
	tbl, err := api.backend.Records()
	if err != nil {
		api.logger.Error("records table unavailable", "error", err)
		httpserver.WriteError(w, r, http.StatusServiceUnavailable, "unavailable")
		return nil, false
	}
	return tbl, true
}

// fail maps table errors onto HTTP statuses.
func (api *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		httpserver.WriteError(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidData):
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, types.ErrBackendDetached):
		httpserver.WriteError(w, r, http.StatusServiceUnavailable, "unavailable")
	default:
		api.logger.Error("request failed", "path", r.URL.Path, "error", err)
		httpserver.WriteError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

// decodePatch reads a flat record object. The id member is optional but must
// match the path id when present.
func decodePatch(r *http.Request, id string) (map[string]string, error) {
	raw, body, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	if _, ok := raw["id"]; !ok {
		return stringFields(raw)
	}
	var rec types.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	if rec.ID != id {
		return nil, fmt.Errorf("%w: %q", errIDMismatch, rec.ID)
	}
	return rec.Fields, nil
}

func decodeObject(r *http.Request) (map[string]json.RawMessage, []byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: not an object", types.ErrInvalidData)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, nil, errors.New("body must contain a single JSON object")
	}
	return raw, body, nil
}

func stringFields(raw map[string]json.RawMessage) (map[string]string, error) {
	fields := make(map[string]string, len(raw))
	for name, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%w: field %q is not a string", types.ErrInvalidData, name)
		}
		fields[name] = s
	}
	return fields, nil
}
