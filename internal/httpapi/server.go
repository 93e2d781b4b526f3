package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
	"github.com/koushikbhargav/commercehubef/internal/syncloop"
)

type ServerConfig struct {
	MaxBodyBytes int64
}

type Logger interface {
	Printf(format string, args ...any)
}

// Server is the thin consumer surface over the core: it only decodes
// requests and forwards to the store, poller, and write-back adapter.
type Server struct {
	store     *commercehub.Store
	poller    *syncloop.Poller
	writeback *commercehub.WritebackAdapter
	cfg       ServerConfig
	logger    Logger
}

func NewServer(store *commercehub.Store, poller *syncloop.Poller, writeback *commercehub.WritebackAdapter) *Server {
	return NewServerWithConfig(store, poller, writeback, ServerConfig{}, nil)
}

func NewServerWithConfig(store *commercehub.Store, poller *syncloop.Poller, writeback *commercehub.WritebackAdapter, cfg ServerConfig, logger Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if writeback == nil {
		writeback = commercehub.NewWritebackAdapter(nil, logger)
	}
	return &Server{
		store:     store,
		poller:    poller,
		writeback: writeback,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "v1" || parts[1] != "stores" {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
		return
	}
	storeID := parts[2]
	if storeID == "" {
		writeError(w, http.StatusNotFound, "not_found", "store id is required")
		return
	}

	switch {
	case len(parts) == 4 && parts[3] == "inventory" && r.Method == http.MethodGet:
		s.handleInventory(w, storeID)
	case len(parts) == 4 && parts[3] == "inventory" && r.Method == http.MethodPut:
		s.handleManualInventory(w, r, storeID)
	case len(parts) == 4 && parts[3] == "config" && r.Method == http.MethodGet:
		s.handleGetConfig(w, storeID)
	case len(parts) == 4 && parts[3] == "config" && r.Method == http.MethodPut:
		s.handlePutConfig(w, r, storeID)
	case len(parts) == 4 && parts[3] == "config" && r.Method == http.MethodPatch:
		s.handlePatchConfig(w, r, storeID)
	case len(parts) == 5 && parts[3] == "sync" && parts[4] == "enable" && r.Method == http.MethodPost:
		s.handleEnable(w, storeID)
	case len(parts) == 5 && parts[3] == "sync" && parts[4] == "disable" && r.Method == http.MethodPost:
		s.handleDisable(w, storeID)
	case len(parts) == 5 && parts[3] == "mapping" && parts[4] == "infer" && r.Method == http.MethodPost:
		s.handleInferMapping(w, r)
	case len(parts) == 6 && parts[3] == "inventory" && parts[5] == "stock" && r.Method == http.MethodPost:
		s.handleStockUpdate(w, r, storeID, parts[4])
	case len(parts) == 4 && parts[3] == "events" && r.Method == http.MethodGet:
		s.handleEvents(w, r, storeID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) handleInventory(w http.ResponseWriter, storeID string) {
	items := s.store.Inventory(storeID)
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"count":  len(items),
		"source": s.store.Source(storeID),
	})
}

// manualMapping maps the fixed manual-entry columns onto themselves;
// manual rows are already canonically shaped.
var manualMapping = commercehub.FieldMapping{
	"name":     "name",
	"category": "category",
	"price":    "price",
	"stock":    "stock",
}

// handleManualInventory replaces the inventory with manually entered
// rows. The rows run through the same normalization path as any other
// source, so defaults and coercions apply identically.
func (s *Server) handleManualInventory(w http.ResponseWriter, r *http.Request, storeID string) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req struct {
		Rows []commercehub.RawRow `json:"rows"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "inventory body is not valid JSON")
		return
	}
	table := commercehub.ManualTable(req.Rows)
	records := commercehub.Normalize(table.Rows, manualMapping)
	s.store.SetInventory(storeID, records, "Manual Entry")
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, storeID string) {
	cfg, err := s.store.Config(storeID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request, storeID string) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := commercehub.ValidateConfigDocument(body); err != nil {
		writeStoreError(w, err)
		return
	}
	var cfg commercehub.SyncConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "config body is not valid JSON")
		return
	}
	if err := s.store.SetConfig(storeID, cfg); err != nil {
		writeStoreError(w, err)
		return
	}
	s.restartPollingIfEnabled(storeID)
	stored, err := s.store.Config(storeID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request, storeID string) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var patch commercehub.ConfigPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "patch body is not valid JSON")
		return
	}
	cfg, err := s.store.PatchConfig(storeID, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.restartPollingIfEnabled(storeID)
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleEnable(w http.ResponseWriter, storeID string) {
	if s.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "no_poller", "polling is not available")
		return
	}
	if err := s.poller.Enable(storeID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}

func (s *Server) handleDisable(w http.ResponseWriter, storeID string) {
	if s.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "no_poller", "polling is not available")
		return
	}
	if err := s.poller.Disable(storeID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

// handleInferMapping takes a raw CSV or JSON sample and answers with
// the discovered columns and the proposed mapping. The proposal is not
// persisted here; the caller confirms it through the config endpoints.
func (s *Server) handleInferMapping(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	table, err := syncloop.DecodeTable(syncloop.SourcePayload{
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	mapping := commercehub.InferMapping(table.Columns, commercehub.Catalog())
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": table.Columns,
		"mapping": mapping,
		"rows":    len(table.Rows),
	})
}

type stockUpdateRequest struct {
	Stock *int `json:"stock,omitempty"`
	Delta *int `json:"delta,omitempty"`
}

type stockUpdateResponse struct {
	Record    commercehub.InventoryRecord `json:"record"`
	Writeback writebackResult             `json:"writeback"`
}

type writebackResult struct {
	Attempted bool   `json:"attempted"`
	Synced    bool   `json:"synced"`
	Error     string `json:"error,omitempty"`
}

// handleStockUpdate is the two-phase mutation: the local stock change
// commits first, then the write-back result is reported alongside so
// the caller can reconcile a failed push.
func (s *Server) handleStockUpdate(w http.ResponseWriter, r *http.Request, storeID, recordID string) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req stockUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "stock body is not valid JSON")
		return
	}
	if req.Stock == nil && req.Delta == nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "stock or delta is required")
		return
	}

	newStock := 0
	if req.Stock != nil {
		newStock = *req.Stock
	} else {
		current, err := findRecord(s.store.Inventory(storeID), recordID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		newStock = current.Stock + *req.Delta
	}

	record, err := s.store.AdjustStock(storeID, recordID, newStock)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	result := writebackResult{}
	if cfg, cfgErr := s.store.Config(storeID); cfgErr == nil {
		attempted, pushErr := s.writeback.PushUpdate(r.Context(), cfg, recordID, map[string]any{"stock": record.Stock})
		result.Attempted = attempted
		result.Synced = attempted && pushErr == nil
		if pushErr != nil {
			result.Error = pushErr.Error()
		}
	}
	writeJSON(w, http.StatusOK, stockUpdateResponse{Record: record, Writeback: result})
}

func findRecord(items []commercehub.InventoryRecord, recordID string) (commercehub.InventoryRecord, error) {
	for _, record := range items {
		if record.ID == recordID {
			return record, nil
		}
	}
	return commercehub.InventoryRecord{}, commercehub.ErrNotFound
}

func (s *Server) restartPollingIfEnabled(storeID string) {
	if s.poller == nil {
		return
	}
	cfg, err := s.store.Config(storeID)
	if err != nil || !cfg.Enabled {
		return
	}
	if err := s.poller.Enable(storeID); err != nil {
		s.logf("failed to restart polling for %s: %v", storeID, err)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return nil, false
	}
	if int64(len(body)) > s.cfg.MaxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds limit")
		return nil, false
	}
	return body, true
}

func (s *Server) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commercehub.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, commercehub.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	case errors.Is(err, commercehub.ErrFormat):
		writeError(w, http.StatusUnprocessableEntity, "format_error", err.Error())
	case errors.Is(err, commercehub.ErrTransport):
		writeError(w, http.StatusBadGateway, "transport_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
