package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"warehouse-inventory/internal/app"
)

// ── Requisitions ──────────────────────────────────────────────────────────────

// apiCreateRequisition handles POST /api/requisitions.
func (h *Handler) apiCreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req app.CreateRequisitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pr, err := h.svc.CreateRequisition(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeCreated(w, pr)
}

// apiListRequisitions handles GET /api/requisitions?warehouse_id=&status=.
func (h *Handler) apiListRequisitions(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListRequisitions(r.Context(), actorFromContext(r.Context()), q)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetRequisition handles GET /api/requisitions/{id}.
func (h *Handler) apiGetRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pr, err := h.svc.GetRequisition(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, pr)
}

// apiApproveRequisition handles POST /api/requisitions/{id}/approve.
func (h *Handler) apiApproveRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pr, err := h.svc.ApproveRequisition(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, pr)
}

// apiConvertRequisition handles POST /api/requisitions/{id}/convert.
func (h *Handler) apiConvertRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ConvertRequisitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	po, err := h.svc.ConvertRequisition(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeCreated(w, po)
}

// ── Purchase orders ───────────────────────────────────────────────────────────

// apiListOrders handles GET /api/orders?warehouse_id=&status=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListOrders(r.Context(), actorFromContext(r.Context()), q)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetOrder handles GET /api/orders/{id}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	po, err := h.svc.GetOrder(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// apiUpdateOrderLines handles PATCH /api/orders/{id}/lines.
func (h *Handler) apiUpdateOrderLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateOrderLinesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	po, err := h.svc.UpdateOrderLines(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// apiApproveOrder handles POST /api/orders/{id}/approve.
func (h *Handler) apiApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	po, err := h.svc.ApproveOrder(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// ── Receipts ──────────────────────────────────────────────────────────────────

// apiListReceipts handles GET /api/receipts?warehouse_id=&status=.
func (h *Handler) apiListReceipts(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListReceipts(r.Context(), actorFromContext(r.Context()), q)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetReceipt handles GET /api/receipts/{id}.
func (h *Handler) apiGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rc, err := h.svc.GetReceipt(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, rc)
}

// apiReceiveReceipt handles POST /api/receipts/{id}/receive.
func (h *Handler) apiReceiveReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ReceiveReceiptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ReceiveReceipt(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// apiListSuppliers handles GET /api/suppliers.
func (h *Handler) apiListSuppliers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSuppliers(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetItem handles GET /api/items/{sku}.
func (h *Handler) apiGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "sku"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// listQuery reads the warehouse_id and status filters shared by list routes.
func listQuery(w http.ResponseWriter, r *http.Request) (app.ListQuery, bool) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return app.ListQuery{}, false
	}
	return app.ListQuery{WarehouseID: wh, Status: r.URL.Query().Get("status")}, true
}
