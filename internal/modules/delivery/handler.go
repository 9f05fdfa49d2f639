package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes delivery HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/deliveries", func(r chi.Router) {
		r.Get("/{id}", h.getDelivery)
		r.Get("/order/{order_id}", h.getByOrder)
		r.Get("/driver/{driver_id}", h.listDriverDeliveries) // ?active=true
		r.Get("/store/{store_id}", h.listStoreDeliveries)    // ?status=IN_TRANSIT
		r.Post("/{id}/assign", h.assignDriver)
		r.Post("/{id}/start", h.start)
		r.Post("/{id}/complete", h.complete)
		r.Post("/{id}/fail", h.fail)
	})
}

func (h *Handler) getDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDelivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) getByOrder(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetByOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) listDriverDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.service.ListDriverDeliveries(r.Context(),
		chi.URLParam(r, "driver_id"), r.URL.Query().Get("active") == "true")
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, deliveries)
}

func (h *Handler) listStoreDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.service.ListStoreDeliveries(r.Context(),
		chi.URLParam(r, "store_id"), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, deliveries)
}

func (h *Handler) assignDriver(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.AssignDriver(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	d, err := h.service.Start(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.Complete(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req FailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.Fail(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
