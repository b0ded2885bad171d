package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

// orderScope limits non-staff callers to their own customer's orders.
func (h *Handler) orderScope(r *http.Request, c auth.Claims) (order.Scope, error) {
	if c.IsStaff {
		return order.Scope{}, nil
	}
	cust, err := h.customers.GetOrCreateForUser(r.Context(), c.UserID)
	if err != nil {
		return order.Scope{}, err
	}
	return order.Scope{CustomerID: cust.ID}, nil
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())
	scope, err := h.orderScope(r, c)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), scope)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderViews(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderID")
	if !ok {
		writeNotFound(w)
		return
	}
	c, _ := claimsFrom(r.Context())
	scope, err := h.orderScope(r, c)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id, scope)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

type createOrderRequest struct {
	CartID string `json:"cart_id"`
}

// CreateOrder places the caller's order from a cart and answers with the new order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	raw := strings.TrimSpace(req.CartID)
	if raw == "" {
		writeFieldError(w, "cart_id", "This field is required.")
		return
	}
	cartID, err := uuid.Parse(raw)
	if err != nil {
		writeFieldError(w, "cart_id", "Must be a valid UUID.")
		return
	}
	in := order.Create{CartID: cartID}
	if err := in.Validate(); err != nil {
		writeValidation(w, r, err)
		return
	}

	c, _ := claimsFrom(r.Context())
	o, err := h.orders.Place(r.Context(), in.CartID, c.UserID)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(o))
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderID")
	if !ok {
		writeNotFound(w)
		return
	}
	var upd order.Update
	if !decodeValid(w, r, &upd) {
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), id, upd.PaymentStatus)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderID")
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		h.orderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, order.ErrCartNotFound):
		writeFieldError(w, "cart_id", "No cart with the given ID was found.")
	case errors.Is(err, order.ErrCartEmpty):
		writeFieldError(w, "cart_id", "The cart is empty.")
	case errors.Is(err, order.ErrCartChanged):
		writeFieldError(w, "cart_id", "A product in the cart is no longer available.")
	default:
		writeValidation(w, r, err)
	}
}
