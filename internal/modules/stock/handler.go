package stock

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes store and stock HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Post("/", h.createStore)
		r.Get("/", h.listStores)
		r.Get("/{id}", h.getStore)
		r.Get("/{id}/stock", h.listStoreStock)
		r.Post("/{id}/stock", h.updateStock)
		r.Post("/{id}/stock/bulk", h.bulkUpdateStock)
	})
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Get("/low", h.listLowStock) // ?store_id=
		r.Post("/replenishment/check", h.runReplenishment)
		r.Post("/replenishment/expire", h.expireDrafts)
	})
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	store, err := h.service.CreateStore(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, store)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, stores)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.service.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, store)
}

func (h *Handler) listStoreStock(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListStoreStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, records)
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rec, err := h.service.UpdateStock(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, rec)
}

func (h *Handler) bulkUpdateStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req BulkUpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	updated, failures, err := h.service.BulkUpdateStock(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"updated": updated, "failures": failures})
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListLowStock(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, records)
}

func (h *Handler) runReplenishment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return
	}
	report, err := h.service.CheckAndGenerateDraftOrders(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) expireDrafts(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return
	}
	daysOld := 7
	if v := r.URL.Query().Get("days_old"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "days_old must be an integer"})
			return
		}
		daysOld = n
	}
	count, err := h.service.CancelExpiredDraftOrders(r.Context(), daysOld)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int64{"cancelled": count})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
