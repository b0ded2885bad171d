package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Catalog   catalog.Repository
	Carts     cart.Repository
	Customers customer.Repository
	Orders    order.Repository
	Users     auth.UserRepository
	Tokens    *auth.Issuer
	Media     *media.Storage
	DB        Pinger
	Logger    logrus.FieldLogger

	CORSAllowOrigins []string
}

type Handler struct {
	catalog   catalog.Repository
	carts     cart.Repository
	customers customer.Repository
	orders    order.Repository
	users     auth.UserRepository
	tokens    *auth.Issuer
	media     *media.Storage
	db        Pinger
}

func newHandler(d Deps) *Handler {
	return &Handler{
		catalog:   d.Catalog,
		carts:     d.Carts,
		customers: d.Customers,
		orders:    d.Orders,
		users:     d.Users,
		tokens:    d.Tokens,
		media:     d.Media,
		db:        d.DB,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			requestLogger(r).WithError(err).Warn("health: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unavailable",
				"service": "store-service",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "store-service",
	})
}

// idParam reads a positive integer URL parameter. Anything else cannot name a
// row, so the caller answers 404.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
