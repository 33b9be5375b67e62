package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"warehouse-inventory/internal/app"
	"warehouse-inventory/internal/metrics"
)

// Options configures NewHandler.
type Options struct {
	AllowedOrigins string
	// TokenSecret switches actor resolution from trusted headers to signed
	// bearer tokens.
	TokenSecret string
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	// Ping reports whether the database is reachable. Nil skips the check.
	Ping func(ctx context.Context) error
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc         app.ApplicationService
	router      chi.Router
	logger      *zap.Logger
	tokenSecret string
	ping        func(ctx context.Context) error
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	h := &Handler{
		svc:         svc,
		logger:      logger,
		tokenSecret: opts.TokenSecret,
		ping:        opts.Ping,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Metrics(m))
	r.Use(Recoverer(logger))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Ops (public) ──────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/api/schema", h.apiListSchemas)
	r.Get("/api/schema/{operation}", h.apiSchema)

	// ── Workflow API (actor required) ─────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireActor)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Requisitions
		r.Post("/api/requisitions", h.apiCreateRequisition)
		r.Get("/api/requisitions", h.apiListRequisitions)
		r.Get("/api/requisitions/{id}", h.apiGetRequisition)
		r.Post("/api/requisitions/{id}/approve", h.apiApproveRequisition)
		r.Post("/api/requisitions/{id}/convert", h.apiConvertRequisition)

		// Purchase orders
		r.Get("/api/orders", h.apiListOrders)
		r.Get("/api/orders/{id}", h.apiGetOrder)
		r.Patch("/api/orders/{id}/lines", h.apiUpdateOrderLines)
		r.Post("/api/orders/{id}/approve", h.apiApproveOrder)

		// Receiving & putaway
		r.Get("/api/receipts", h.apiListReceipts)
		r.Get("/api/receipts/{id}", h.apiGetReceipt)
		r.Post("/api/receipts/{id}/receive", h.apiReceiveReceipt)
		r.Get("/api/putaways", h.apiListPutaways)
		r.Post("/api/putaways/{id}/complete", h.apiCompletePutaway)

		// Picking & movements
		r.Post("/api/picks", h.apiPick)
		r.Get("/api/picks/recent", h.apiRecentPicks)
		r.Post("/api/stock/issue", h.apiIssueStock)
		r.Post("/api/stock/transfer", h.apiTransferStock)

		// Read views
		r.Get("/api/stock", h.apiStockLevels)
		r.Get("/api/stock/aging", h.apiStockAging)
		r.Get("/api/stock/reconcile", h.apiReconcile)
		r.Get("/api/batches/expiring", h.apiExpiringBatches)

		// Bins
		r.Get("/api/bins", h.apiListBins)
		r.Post("/api/bins", h.apiCreateBin)
		r.Post("/api/bins/{id}/deactivate", h.apiDeactivateBin)

		// Catalog
		r.Get("/api/suppliers", h.apiListSuppliers)
		r.Get("/api/items/{sku}", h.apiGetItem)

		// Reorder
		r.Post("/api/reorder/evaluate", h.apiEvaluateReorder)
		r.Get("/api/reorder/suggestions", h.apiReorderSuggestions)
		r.Get("/api/reorder/rules", h.apiListReorderRules)
		r.Post("/api/reorder/rules", h.apiCreateReorderRule)
		r.Put("/api/reorder/rules/{id}", h.apiUpdateReorderRule)
		r.Post("/api/reorder/rules/{id}/deactivate", h.apiDeactivateReorderRule)
	})

	h.router = r
	return r
}

// health reports service status and, when configured, database reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database,omitempty"`
	}

	if h.ping == nil {
		writeJSON(w, response{Status: "ok"})
		return
	}
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(response{Status: "unavailable", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "ok"})
}

// apiListSchemas handles GET /api/schema.
func (h *Handler) apiListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"operations": app.SchemaOperations()})
}

// apiSchema handles GET /api/schema/{operation}.
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	schema, ok := app.RequestSchema(chi.URLParam(r, "operation"))
	if !ok {
		writeError(w, r, "unknown operation", "NOT_FOUND", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	_ = json.NewEncoder(w).Encode(schema)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. It writes 400 and returns
// false when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning def when absent.
func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, r, "invalid "+key+" query parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
