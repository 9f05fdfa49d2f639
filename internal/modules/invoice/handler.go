package invoice

import (
	"encoding/json"
	"net/http"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Handler exposes invoice, payment and return HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Post("/", h.generateInvoice)
		r.Get("/{id}", h.getInvoice)
		r.Get("/order/{order_id}", h.getByOrder)
		r.Get("/store/{store_id}", h.listStoreInvoices) // ?status=OVERDUE
		r.Get("/{id}/payments", h.listPayments)
		r.Post("/payments", h.recordPayment)
		r.Post("/auto-generate", h.autoGenerate)
		r.Post("/reminders", h.sendReminders)
	})
	r.Route("/api/v1/returns", func(r chi.Router) {
		r.Post("/", h.createReturn)
		r.Get("/{id}", h.getReturn)
		r.Get("/store/{store_id}", h.listStoreReturns)
		r.Post("/{id}/process", h.processReturn)
		r.Post("/{id}/reject", h.rejectReturn)
	})
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.GenerateInvoice(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) getByOrder(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoiceByOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) listStoreInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListStoreInvoices(r.Context(),
		chi.URLParam(r, "store_id"), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, invoices)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.RecordPayment(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, inv)
}

func (h *Handler) autoGenerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return
	}
	report, err := h.service.AutoGenerateInvoices(r.Context())
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) sendReminders(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return
	}
	notified, err := h.service.SendPaymentReminders(r.Context())
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int{"notified": notified})
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req CreateReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ret, err := h.service.CreateReturn(r.Context(), actor, req)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, ret)
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	ret, err := h.service.GetReturn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ret)
}

func (h *Handler) listStoreReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.service.ListStoreReturns(r.Context(), chi.URLParam(r, "store_id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, returns)
}

func (h *Handler) processReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	ret, inv, err := h.service.ProcessReturn(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"return": ret, "invoice": inv})
}

func (h *Handler) rejectReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	ret, err := h.service.RejectReturn(r.Context(), actor, chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		respond(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ret)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
