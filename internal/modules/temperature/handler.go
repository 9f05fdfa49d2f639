package temperature

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes temperature monitoring HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/temperature", func(r chi.Router) {
		r.Post("/logs", h.logTemperature)
		r.Get("/logs/store/{store_id}", h.listStoreLogs) // ?limit=50
		r.Get("/logs/delivery/{delivery_id}", h.listDeliveryLogs)
		r.Post("/alerts/check", h.checkAlerts)
	})
}

func (h *Handler) logTemperature(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	entry, err := h.service.LogTemperature(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, entry)
}

func (h *Handler) listStoreLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	logs, err := h.service.ListStoreLogs(r.Context(), chi.URLParam(r, "store_id"), limit)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, logs)
}

func (h *Handler) listDeliveryLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.ListDeliveryLogs(r.Context(), chi.URLParam(r, "delivery_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, logs)
}

func (h *Handler) checkAlerts(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return
	}
	raised, err := h.service.CheckTemperatureAlerts(r.Context())
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int{"alerts_raised": raised})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
