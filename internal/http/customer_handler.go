package httpapi

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := h.customers.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "customerID")
	if !ok {
		writeNotFound(w)
		return
	}
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if !decodeValid(w, r, &c) {
		return
	}
	if c.UserID < 1 {
		writeFieldError(w, "user_id", "This field is required.")
		return
	}
	created, err := h.customers.Create(r.Context(), c)
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "customerID")
	if !ok {
		writeNotFound(w)
		return
	}

	var c customer.Customer
	if r.Method == http.MethodPatch {
		existing, err := h.customers.Get(r.Context(), id)
		if err != nil {
			h.customerError(w, r, err)
			return
		}
		c = existing
	}
	h.saveCustomer(w, r, id, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "customerID")
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.customers.Delete(r.Context(), id); err != nil {
		h.customerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMe returns the caller's customer profile, creating it on first use.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	c, err := h.customers.GetOrCreateForUser(r.Context(), claims.UserID)
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	existing, err := h.customers.GetOrCreateForUser(r.Context(), claims.UserID)
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	h.saveCustomer(w, r, existing.ID, existing)
}

// saveCustomer decodes the body over c and stores it as customer id.
func (h *Handler) saveCustomer(w http.ResponseWriter, r *http.Request, id int64, c customer.Customer) {
	if !decodeValid(w, r, &c) {
		return
	}
	c.ID = id

	updated, err := h.customers.Update(r.Context(), c)
	if err != nil {
		h.customerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// CustomerHistory lists every order the customer has placed.
func (h *Handler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "customerID")
	if !ok {
		writeNotFound(w)
		return
	}
	if _, err := h.customers.Get(r.Context(), id); err != nil {
		h.customerError(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), order.Scope{CustomerID: id})
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderViews(orders))
}

func (h *Handler) customerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, customer.ErrHasOrders):
		writeError(w, http.StatusMethodNotAllowed, "Customer cannot be deleted because it has one or more orders.")
	default:
		writeValidation(w, r, err)
	}
}
