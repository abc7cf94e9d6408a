package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cryptonak/loms/audit"
	"github.com/cryptonak/loms/oms"
	"github.com/cryptonak/loms/position"
	"github.com/cryptonak/loms/pricing"
	"github.com/cryptonak/loms/shared"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	manager   *oms.Manager
	store     *position.Store
	generator *pricing.Generator
	resolve   func() shared.PriceSource
	journal   *audit.Journal
	logger    *zerolog.Logger
}

// HandlerConfig represents the handler configuration.
type HandlerConfig struct {
	// Manager is the order manager.
	Manager *oms.Manager
	// Store is the position store.
	Store *position.Store
	// Generator is the simulated price generator, nil when the active
	// source is not the simulator.
	Generator *pricing.Generator
	// ResolveSource returns the active price source.
	ResolveSource func() shared.PriceSource
	// Journal is the audit journal.
	Journal *audit.Journal
	// Logger is the handler logger.
	Logger *zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(cfg *HandlerConfig) *Handler {
	return &Handler{
		manager:   cfg.Manager,
		store:     cfg.Store,
		generator: cfg.Generator,
		resolve:   cfg.ResolveSource,
		journal:   cfg.Journal,
		logger:    cfg.Logger,
	}
}

// BounceSignal handles POST /signals/bounce.
func (h *Handler) BounceSignal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "reading request body failed", http.StatusBadRequest)
		return
	}

	var signal shared.Signal
	if err := json.Unmarshal(body, &signal); err != nil {
		// Malformed payloads are journaled raw so they remain
		// reconstructable.
		h.journal.Record(audit.TypeBounceSignal, string(body))
		http.Error(w, "invalid signal payload", http.StatusBadRequest)
		return
	}

	if signal.Symbol == "" {
		h.journal.Record(audit.TypeBounceSignal, string(body))
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	res := h.manager.HandleSignal(r.Context(), &signal)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": res.OK,
		"reason":   res.Reason,
		"position": res.Position,
	})
}

// GetPositions handles GET /positions.
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	var filter *shared.PositionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := shared.ParsePositionStatus(raw)
		if !ok {
			http.Error(w, "unknown position status", http.StatusBadRequest)
			return
		}
		filter = &status
	}

	respondJSON(w, http.StatusOK, h.store.List(filter))
}

// ClosePosition handles POST /positions/{id}/close.
func (h *Handler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var req struct {
		Price *float64 `json:"price"`
	}
	if r.Body != nil {
		// The body is optional, an empty body closes at the current
		// market price.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			http.Error(w, "invalid close payload", http.StatusBadRequest)
			return
		}
	}

	res := h.manager.ManualClose(r.Context(), id, req.Price)
	if !res.OK && res.Reason == oms.ReasonPositionNotFound {
		http.Error(w, res.Reason, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"closed":   res.OK,
		"reason":   res.Reason,
		"position": res.Position,
	})
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.manager.Stats())
}

// GetPrice handles GET /market/price.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	source := h.resolve()
	quote, err := source.Quote(r.Context(), symbol)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("quote fetch failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	price, err := shared.SelectPrice(quote, quote.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"price":  price,
		"source": quote.Source.String(),
		"mode":   quote.Mode.String(),
		"ts":     quote.TS,
	})
}

// SetPrice handles POST /market/price.
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		http.Error(w, "price override requires the simulated source", http.StatusConflict)
		return
	}

	var req struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid price payload", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" || req.Price <= 0 {
		http.Error(w, "symbol and a positive price are required", http.StatusBadRequest)
		return
	}

	h.generator.SetBasePrice(req.Symbol, req.Price)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": req.Symbol,
		"price":  req.Price,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
