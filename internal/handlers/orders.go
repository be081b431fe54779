package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fluxcart/api/internal/platform/httpx"
	"github.com/fluxcart/api/internal/services"
)

const maxOrderBodySize = 64 * 1024

// OrderHandlers exposes the order context over HTTP.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Delete("/{orderID}", h.deleteOrder)

	r.Post("/{orderID}/items", h.addItem)
	r.Patch("/{orderID}/items/{itemID}", h.updateItemQuantity)
	r.Delete("/{orderID}/items/{itemID}", h.removeItem)
	r.Post("/{orderID}/items/{itemID}:discount", h.applyItemDiscount)

	r.Put("/{orderID}/shipping-address", h.updateShippingAddress)
	r.Put("/{orderID}/notes", h.setNotes)

	r.Post("/{orderID}:submit", h.submitOrder)
	r.Post("/{orderID}:cancel", h.cancelOrder)
	r.Post("/{orderID}:pay", h.markPaid)
	r.Post("/{orderID}:fail-payment", h.markPaymentFailed)
	r.Post("/{orderID}:process", h.startProcessing)
	r.Post("/{orderID}:ship", h.shipOrder)
	r.Post("/{orderID}:deliver", h.markDelivered)
}

type createOrderRequest struct {
	CustomerID string         `json:"customer_id"`
	Shipping   addressPayload `json:"shipping_address"`
	Currency   string         `json:"currency"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		CustomerID: req.CustomerID,
		Shipping:   addressInput(req.Shipping),
		Currency:   req.Currency,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, encodeOrderPayload(o))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	orders, err := h.orders.ListOrders(ctx, services.OrderQuery{
		CustomerID: query.Get("customer_id"),
		Status:     query.Get("status"),
		View:       query.Get("view"),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		payloads = append(payloads, encodeOrderPayload(o))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": payloads})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.orders.DeleteDraftOrder(ctx, chi.URLParam(r, "orderID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Currency    string `json:"currency"`
	Quantity    int    `json:"quantity"`
}

func (h *OrderHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.AddItem(ctx, services.AddOrderItemCommand{
		OrderID:     chi.URLParam(r, "orderID"),
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		UnitPrice:   req.UnitPrice,
		Currency:    req.Currency,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *OrderHandlers) updateItemQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateItemQuantity(ctx, services.UpdateItemQuantityCommand{
		OrderID:  chi.URLParam(r, "orderID"),
		ItemID:   chi.URLParam(r, "itemID"),
		Quantity: req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.RemoveItem(ctx, chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type applyDiscountRequest struct {
	Discount string `json:"discount"`
	Currency string `json:"currency"`
}

func (h *OrderHandlers) applyItemDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req applyDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.ApplyItemDiscount(ctx, services.ApplyItemDiscountCommand{
		OrderID:  chi.URLParam(r, "orderID"),
		ItemID:   chi.URLParam(r, "itemID"),
		Discount: req.Discount,
		Currency: req.Currency,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type updateShippingRequest struct {
	Shipping addressPayload `json:"shipping_address"`
}

func (h *OrderHandlers) updateShippingAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateShippingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateShippingAddress(ctx, services.UpdateShippingAddressCommand{
		OrderID:  chi.URLParam(r, "orderID"),
		Shipping: addressInput(req.Shipping),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type setNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *OrderHandlers) setNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req setNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.SetNotes(ctx, chi.URLParam(r, "orderID"), req.Notes)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.SubmitOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req cancelOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.CancelOrder(ctx, chi.URLParam(r, "orderID"), req.Reason)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type markPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

func (h *OrderHandlers) markPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req markPaidRequest
	if !decodeBody(w, r, &req) {
		return
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	o, err := h.orders.MarkOrderPaid(ctx, chi.URLParam(r, "orderID"), paidAt)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

type markPaymentFailedRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandlers) markPaymentFailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req markPaymentFailedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.MarkOrderPaymentFailed(ctx, chi.URLParam(r, "orderID"), req.Reason)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) startProcessing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.StartProcessing(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) shipOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.ShipOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func (h *OrderHandlers) markDelivered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.MarkDelivered(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, encodeOrderPayload(o))
}

func addressInput(payload addressPayload) services.AddressInput {
	return services.AddressInput{
		Recipient:  payload.Recipient,
		Line1:      payload.Line1,
		Line2:      payload.Line2,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
		Phone:      payload.Phone,
	}
}

// decodeBody parses the JSON request body, tolerating an empty body for
// action endpoints whose parameters are all optional.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxOrderBodySize)
	defer body.Close()

	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}
