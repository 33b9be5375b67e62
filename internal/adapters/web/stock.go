package web

import (
	"net/http"

	"warehouse-inventory/internal/app"
)

// ── Putaway ───────────────────────────────────────────────────────────────────

// apiListPutaways handles GET /api/putaways?warehouse_id=&state=pending|completed.
func (h *Handler) apiListPutaways(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	q := app.PutawayQuery{WarehouseID: wh, State: r.URL.Query().Get("state")}
	result, err := h.svc.ListPutawayTasks(r.Context(), actorFromContext(r.Context()), q)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCompletePutaway handles POST /api/putaways/{id}/complete.
func (h *Handler) apiCompletePutaway(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.CompletePutawayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CompletePutaway(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Picking & movements ───────────────────────────────────────────────────────

// apiPick handles POST /api/picks.
func (h *Handler) apiPick(w http.ResponseWriter, r *http.Request) {
	var req app.PickStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.Pick(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRecentPicks handles GET /api/picks/recent?warehouse_id=&limit=.
func (h *Handler) apiRecentPicks(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 20)
	if !ok {
		return
	}
	result, err := h.svc.RecentPicks(r.Context(), actorFromContext(r.Context()), wh, limit)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiIssueStock handles POST /api/stock/issue.
func (h *Handler) apiIssueStock(w http.ResponseWriter, r *http.Request) {
	var req app.IssueStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.IssueStock(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiTransferStock handles POST /api/stock/transfer.
func (h *Handler) apiTransferStock(w http.ResponseWriter, r *http.Request) {
	var req app.TransferStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.TransferStock(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Read views ────────────────────────────────────────────────────────────────

// apiStockLevels handles GET /api/stock?warehouse_id=.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.StockLevels(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiStockAging handles GET /api/stock/aging?warehouse_id=.
func (h *Handler) apiStockAging(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.StockAging(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReconcile handles GET /api/stock/reconcile?warehouse_id=.
func (h *Handler) apiReconcile(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.Reconcile(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiExpiringBatches handles GET /api/batches/expiring?warehouse_id=&days=.
func (h *Handler) apiExpiringBatches(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	days, ok := queryInt(w, r, "days", 30)
	if !ok {
		return
	}
	result, err := h.svc.ExpiringBatches(r.Context(), actorFromContext(r.Context()), wh, days)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Bins ──────────────────────────────────────────────────────────────────────

// apiListBins handles GET /api/bins?warehouse_id=.
func (h *Handler) apiListBins(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.ListBins(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateBin handles POST /api/bins.
func (h *Handler) apiCreateBin(w http.ResponseWriter, r *http.Request) {
	var req app.CreateBinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bin, err := h.svc.CreateBin(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeCreated(w, bin)
}

// apiDeactivateBin handles POST /api/bins/{id}/deactivate.
func (h *Handler) apiDeactivateBin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bin, err := h.svc.DeactivateBin(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, bin)
}
