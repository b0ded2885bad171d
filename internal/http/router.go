package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
)

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := newHandler(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSAllowOrigins))
	r.Use(middleware.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})

	r.Get("/health", h.Health)

	if d.Media != nil {
		files := http.StripPrefix("/media/", http.FileServer(http.Dir(d.Media.Root())))
		r.Handle("/media/*", files)
	}

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Tokens))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/users", h.RegisterUser)
			r.With(requireAuth).Get("/users/me", h.CurrentUser)
			r.Post("/jwt/create", h.CreateToken)
			r.Post("/jwt/refresh", h.RefreshToken)
		})

		r.Route("/store", func(r chi.Router) {
			r.Route("/collections", func(r chi.Router) {
				r.Use(requireAdminOrReadOnly)
				r.Get("/", h.ListCollections)
				r.Post("/", h.CreateCollection)
				r.Route("/{collectionID}", func(r chi.Router) {
					r.Get("/", h.GetCollection)
					r.Put("/", h.UpdateCollection)
					r.Patch("/", h.UpdateCollection)
					r.Delete("/", h.DeleteCollection)
				})
			})

			r.Route("/products", func(r chi.Router) {
				r.With(requireAdminOrReadOnly).Get("/", h.ListProducts)
				r.With(requireAdminOrReadOnly).Post("/", h.CreateProduct)
				r.Route("/{productID}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(requireAdminOrReadOnly)
						r.Get("/", h.GetProduct)
						r.Put("/", h.UpdateProduct)
						r.Patch("/", h.UpdateProduct)
						r.Delete("/", h.DeleteProduct)
					})

					r.Route("/reviews", func(r chi.Router) {
						r.Get("/", h.ListReviews)
						r.Post("/", h.CreateReview)
						r.Get("/{reviewID}", h.GetReview)
						r.Put("/{reviewID}", h.UpdateReview)
						r.Patch("/{reviewID}", h.UpdateReview)
						r.Delete("/{reviewID}", h.DeleteReview)
					})

					r.Route("/images", func(r chi.Router) {
						r.Use(requireAdminOrReadOnly)
						r.Get("/", h.ListImages)
						r.Post("/", h.CreateImage)
						r.Get("/{imageID}", h.GetImage)
						r.Delete("/{imageID}", h.DeleteImage)
					})
				})
			})

			r.Route("/promotions", func(r chi.Router) {
				r.Use(requireAdminOrReadOnly)
				r.Get("/", h.ListPromotions)
				r.Post("/", h.CreatePromotion)
			})

			r.Route("/carts", func(r chi.Router) {
				r.Post("/", h.CreateCart)
				r.Route("/{cartID}", func(r chi.Router) {
					r.Get("/", h.GetCart)
					r.Delete("/", h.DeleteCart)
					r.Get("/items", h.ListCartItems)
					r.Post("/items", h.AddCartItem)
					r.Get("/items/{itemID}", h.GetCartItem)
					r.Patch("/items/{itemID}", h.UpdateCartItem)
					r.Delete("/items/{itemID}", h.DeleteCartItem)
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.With(requireAuth).Get("/me", h.GetMe)
				r.With(requireAuth).Put("/me", h.UpdateMe)
				r.With(permit(hasPermission(customer.PermissionViewHistory))).
					Get("/{customerID}/history", h.CustomerHistory)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", h.ListCustomers)
					r.Post("/", h.CreateCustomer)
					r.Get("/{customerID}", h.GetCustomer)
					r.Put("/{customerID}", h.UpdateCustomer)
					r.Patch("/{customerID}", h.UpdateCustomer)
					r.Delete("/{customerID}", h.DeleteCustomer)
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(requireAuth).Get("/", h.ListOrders)
				r.With(requireAuth).Post("/", h.CreateOrder)
				r.With(requireAuth).Get("/{orderID}", h.GetOrder)
				r.With(requireAdmin).Patch("/{orderID}", h.UpdateOrder)
				r.With(requireAdmin).Delete("/{orderID}", h.DeleteOrder)
			})
		})
	})

	return r
}
