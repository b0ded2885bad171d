package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/cart"
)

func cartIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCartView(c))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := cartIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}
	c, err := h.carts.Get(r.Context(), id)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(c))
}

func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id, ok := cartIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.carts.Delete(r.Context(), id); err != nil {
		h.cartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCartItems(w http.ResponseWriter, r *http.Request) {
	id, ok := cartIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}
	items, err := h.carts.ListItems(r.Context(), id)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartItemViews(items))
}

func (h *Handler) GetCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok1 := cartIDParam(r)
	itemID, ok2 := idParam(r, "itemID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	it, err := h.carts.GetItem(r.Context(), cartID, itemID)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartItemView(it))
}

// AddCartItem puts a product in the cart, merging with an existing line.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}
	var add cart.AddItem
	if !decodeValid(w, r, &add) {
		return
	}
	it, err := h.carts.AddItem(r.Context(), cartID, add)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCartItemView(it))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok1 := cartIDParam(r)
	itemID, ok2 := idParam(r, "itemID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	var upd cart.UpdateItem
	if !decodeValid(w, r, &upd) {
		return
	}
	it, err := h.carts.UpdateItem(r.Context(), cartID, itemID, upd)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartItemView(it))
}

func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok1 := cartIDParam(r)
	itemID, ok2 := idParam(r, "itemID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	if err := h.carts.DeleteItem(r.Context(), cartID, itemID); err != nil {
		h.cartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, cart.ErrItemNotFound):
		writeNotFound(w)
	case errors.Is(err, cart.ErrProductNotFound):
		writeFieldError(w, "product_id", "No product with the given ID was found.")
	case errors.Is(err, cart.ErrQuantityLimit):
		writeFieldError(w, "quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", cart.MaxQuantity))
	default:
		writeValidation(w, r, err)
	}
}
