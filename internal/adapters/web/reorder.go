package web

import (
	"net/http"

	"warehouse-inventory/internal/app"
)

// apiEvaluateReorder handles POST /api/reorder/evaluate?warehouse_id=.
func (h *Handler) apiEvaluateReorder(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.EvaluateReorder(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReorderSuggestions handles GET /api/reorder/suggestions?warehouse_id=.
func (h *Handler) apiReorderSuggestions(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.ReorderSuggestions(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListReorderRules handles GET /api/reorder/rules?warehouse_id=.
func (h *Handler) apiListReorderRules(w http.ResponseWriter, r *http.Request) {
	wh, ok := queryInt(w, r, "warehouse_id", 0)
	if !ok {
		return
	}
	result, err := h.svc.ListReorderRules(r.Context(), actorFromContext(r.Context()), wh)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateReorderRule handles POST /api/reorder/rules.
func (h *Handler) apiCreateReorderRule(w http.ResponseWriter, r *http.Request) {
	var req app.ReorderRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rule, err := h.svc.CreateReorderRule(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeCreated(w, rule)
}

// apiUpdateReorderRule handles PUT /api/reorder/rules/{id}.
func (h *Handler) apiUpdateReorderRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ReorderRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rule, err := h.svc.UpdateReorderRule(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, rule)
}

// apiDeactivateReorderRule handles POST /api/reorder/rules/{id}/deactivate.
func (h *Handler) apiDeactivateReorderRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rule, err := h.svc.DeactivateReorderRule(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, rule)
}
