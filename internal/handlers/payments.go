package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fluxcart/api/internal/platform/httpx"
	"github.com/fluxcart/api/internal/services"
)

// PaymentHandlers exposes the payment context over HTTP.
type PaymentHandlers struct {
	payments services.PaymentService
}

// NewPaymentHandlers constructs a new PaymentHandlers instance.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// Routes registers the /payments endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createPayment)
	r.Get("/", h.listPayments)
	r.Get("/{paymentID}", h.getPayment)
	r.Get("/by-order/{orderID}", h.getPaymentByOrder)

	r.Post("/{paymentID}:process", h.processPayment)
	r.Post("/{paymentID}:charge", h.chargePayment)
	r.Post("/{paymentID}:complete", h.completePayment)
	r.Post("/{paymentID}:fail", h.failPayment)
	r.Post("/{paymentID}:refund", h.refundPayment)
	r.Post("/{paymentID}:cancel", h.cancelPayment)
}

type createPaymentRequest struct {
	OrderID    string       `json:"order_id"`
	CustomerID string       `json:"customer_id"`
	Amount     string       `json:"amount"`
	Currency   string       `json:"currency"`
	Method     string       `json:"method"`
	Card       *cardPayload `json:"card"`
}

func (h *PaymentHandlers) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := services.CreatePaymentCommand{
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Method:     req.Method,
	}
	if req.Card != nil {
		cmd.Card = &services.CardInput{
			Last4:       req.Card.Last4,
			CardType:    req.Card.CardType,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			Holder:      req.Card.Holder,
		}
	}

	p, err := h.payments.CreatePayment(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, encodePaymentPayload(p))
}

func (h *PaymentHandlers) listPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	payments, err := h.payments.ListPayments(ctx, services.PaymentQuery{
		CustomerID: query.Get("customer_id"),
		Status:     query.Get("status"),
		View:       query.Get("view"),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]paymentPayload, 0, len(payments))
	for _, p := range payments {
		payloads = append(payloads, encodePaymentPayload(p))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"payments": payloads})
}

func (h *PaymentHandlers) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.payments.GetPayment(ctx, chi.URLParam(r, "paymentID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

func (h *PaymentHandlers) getPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.payments.GetPaymentByOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

func (h *PaymentHandlers) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.payments.ProcessPayment(ctx, chi.URLParam(r, "paymentID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

func (h *PaymentHandlers) chargePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.payments.ChargePayment(ctx, chi.URLParam(r, "paymentID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

type completePaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *PaymentHandlers) completePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req completePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.payments.CompletePayment(ctx, chi.URLParam(r, "paymentID"), req.TransactionID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandlers) failPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.payments.FailPayment(ctx, chi.URLParam(r, "paymentID"), req.Reason)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

func (h *PaymentHandlers) refundPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.payments.RefundPayment(ctx, chi.URLParam(r, "paymentID"), req.Reason)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}

func (h *PaymentHandlers) cancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.payments.CancelPayment(ctx, chi.URLParam(r, "paymentID"), req.Reason)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodePaymentPayload(p))
}
