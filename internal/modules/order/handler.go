package order

import (
	"encoding/json"
	"net/http"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes order pipeline HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)                    // POST   /api/v1/orders
		r.Get("/{id}", h.getOrder)                    // GET    /api/v1/orders/{id}
		r.Get("/store/{store_id}", h.listStoreOrders) // GET    /api/v1/orders/store/{store_id}?status=PENDING
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
		r.Post("/{id}/cancel", h.cancel)
		r.Post("/{id}/delivery", h.generateDelivery)
		r.Post("/{id}/finalize", h.finalize)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.CreateOrder(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listStoreOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListStoreOrders(r.Context(),
		chi.URLParam(r, "store_id"), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor auth.Principal, id string) (*Order, error) {
		return h.service.Submit(r.Context(), actor, id)
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor auth.Principal, id string) (*Order, error) {
		return h.service.Approve(r.Context(), actor, id)
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.transition(w, r, func(actor auth.Principal, id string) (*Order, error) {
		return h.service.Reject(r.Context(), actor, id, reason)
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.transition(w, r, func(actor auth.Principal, id string) (*Order, error) {
		return h.service.Cancel(r.Context(), actor, id, reason)
	})
}

func (h *Handler) generateDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin role required"})
		return
	}
	o, err := h.service.GenerateDelivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor auth.Principal, id string) (*Order, error) {
		return h.service.Finalize(r.Context(), actor, id)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(auth.Principal, string) (*Order, error)) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	o, err := fn(actor, chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func decodeReason(r *http.Request) string {
	var req ReasonRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Reason
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
