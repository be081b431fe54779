// Package handlers exposes the HTTP surface of both bounded contexts and maps
// service errors onto the shared JSON error envelope.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/integration"
	"github.com/fluxcart/api/internal/platform/httpx"
	"github.com/fluxcart/api/internal/services"
)

// writeServiceError maps application-layer failures to HTTP statuses. Rule
// violations are unprocessable rather than bad requests: the payload was
// well-formed, the business said no.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if ruleErr, ok := domain.AsRuleError(err); ok {
		httpx.WriteError(ctx, w, httpx.NewError(ruleErr.Code, ruleErr.Message, http.StatusUnprocessableEntity))
		return
	}
	if integration.IsTranslationError(err) {
		httpx.WriteError(ctx, w, httpx.NewError("translation_failed", err.Error(), http.StatusBadRequest))
		return
	}

	switch {
	case errors.Is(err, services.ErrOrderInvalidInput), errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrPaymentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderConflict), errors.Is(err, services.ErrPaymentConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable), errors.Is(err, services.ErrPaymentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "dependency unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}

type addressPayload struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type moneyPayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type orderItemPayload struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	UnitPrice   moneyPayload `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	Discount    moneyPayload `json:"discount"`
	Total       string       `json:"total"`
}

type orderPayload struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	Status          string             `json:"status"`
	Currency        string             `json:"currency"`
	Notes           string             `json:"notes,omitempty"`
	ShippingAddress addressPayload     `json:"shipping_address"`
	Items           []orderItemPayload `json:"items"`
	TotalAmount     moneyPayload       `json:"total_amount"`
	CreatedAt       time.Time          `json:"created_at"`
	ModifiedAt      *time.Time         `json:"modified_at,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
	Version         int64              `json:"version"`
}

func encodeMoneyPayload(m domain.Money) moneyPayload {
	return moneyPayload{Amount: m.Amount().String(), Currency: m.Currency()}
}

func encodeAddressPayload(a domain.Address) addressPayload {
	return addressPayload{
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func encodeOrderPayload(o *order.Order) orderPayload {
	items := make([]orderItemPayload, 0, o.ItemCount())
	for _, item := range o.Items() {
		payload := orderItemPayload{
			ID:          item.ID().Raw(),
			ProductID:   item.ProductID().Raw(),
			ProductName: item.ProductName(),
			UnitPrice:   encodeMoneyPayload(item.UnitPrice()),
			Quantity:    item.Quantity(),
			Discount:    encodeMoneyPayload(item.Discount()),
		}
		if total, err := item.Total(); err == nil {
			payload.Total = total.Amount().String()
		}
		items = append(items, payload)
	}
	return orderPayload{
		ID:              o.ID().Raw(),
		CustomerID:      o.CustomerID().Raw(),
		Status:          string(o.Status()),
		Currency:        o.Currency(),
		Notes:           o.Notes(),
		ShippingAddress: encodeAddressPayload(o.ShippingAddress()),
		Items:           items,
		TotalAmount:     encodeMoneyPayload(o.TotalAmount()),
		CreatedAt:       o.CreatedAt(),
		ModifiedAt:      o.ModifiedAt(),
		SubmittedAt:     o.SubmittedAt(),
		PaidAt:          o.PaidAt(),
		Version:         o.Version(),
	}
}

type cardPayload struct {
	Last4       string `json:"last4"`
	CardType    string `json:"card_type"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	Holder      string `json:"holder"`
}

type paymentPayload struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"order_id"`
	CustomerID    string       `json:"customer_id"`
	Amount        moneyPayload `json:"amount"`
	Status        string       `json:"status"`
	Method        string       `json:"method"`
	Card          *cardPayload `json:"card,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	Version       int64        `json:"version"`
}

func encodePaymentPayload(p *payment.Payment) paymentPayload {
	var card *cardPayload
	if details := p.Card(); details != nil {
		card = &cardPayload{
			Last4:       details.Last4(),
			CardType:    details.CardType(),
			ExpiryMonth: details.ExpiryMonth(),
			ExpiryYear:  details.ExpiryYear(),
			Holder:      details.Holder(),
		}
	}
	return paymentPayload{
		ID:            p.ID().Raw(),
		OrderID:       p.OrderID().Raw(),
		CustomerID:    p.CustomerID().Raw(),
		Amount:        encodeMoneyPayload(p.Amount()),
		Status:        string(p.Status()),
		Method:        string(p.Method()),
		Card:          card,
		TransactionID: p.TransactionID(),
		FailureReason: p.FailureReason(),
		CreatedAt:     p.CreatedAt(),
		ProcessedAt:   p.ProcessedAt(),
		CompletedAt:   p.CompletedAt(),
		Version:       p.Version(),
	}
}
