package kitchen

import (
	"encoding/json"
	"net/http"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes kitchen prep HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/kitchen/sheets", func(r chi.Router) {
		r.Post("/", h.generateSheet)                // POST /api/v1/kitchen/sheets {order_id}
		r.Get("/", h.listSheets)                    // GET  /api/v1/kitchen/sheets?status=PENDING
		r.Get("/{id}", h.getSheet)                  // GET  /api/v1/kitchen/sheets/{id}
		r.Get("/order/{order_id}", h.getByOrder)    // GET  /api/v1/kitchen/sheets/order/{order_id}
		r.Post("/{id}/items/{item_id}/pack", h.packItem)
		r.Post("/{id}/complete", h.completeSheet)
		r.Post("/auto-generate", h.autoGenerate)
	})
}

func (h *Handler) generateSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sheet, err := h.service.GenerateSheet(r.Context(), req.OrderID)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, sheet)
}

func (h *Handler) listSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.service.ListSheets(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sheets)
}

func (h *Handler) getSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.GetSheet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sheet)
}

func (h *Handler) getByOrder(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.GetSheetByOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sheet)
}

func (h *Handler) packItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req PackItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sheet, err := h.service.PackItem(r.Context(), actor,
		chi.URLParam(r, "id"), chi.URLParam(r, "item_id"), req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sheet)
}

func (h *Handler) completeSheet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	sheet, err := h.service.CompleteSheet(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sheet)
}

func (h *Handler) autoGenerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin role required"})
		return
	}
	report, err := h.service.AutoGenerateForApprovedOrders(r.Context())
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, report)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
