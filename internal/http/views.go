package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

// Response shapes. Money is rendered as a fixed two-decimal string.

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type imageView struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

func newImageView(img catalog.ProductImage) imageView {
	return imageView{ID: img.ID, Image: media.URL(img.Image)}
}

type productView struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description"`
	Inventory    int         `json:"inventory"`
	UnitPrice    string      `json:"unit_price"`
	PriceWithTax string      `json:"price_with_tax"`
	Collection   int64       `json:"collection"`
	Promotions   []int64     `json:"promotions"`
	LastUpdate   time.Time   `json:"last_update"`
	Images       []imageView `json:"images"`
}

func newProductView(p catalog.Product) productView {
	v := productView{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Inventory:    p.Inventory,
		UnitPrice:    money(p.UnitPrice),
		PriceWithTax: money(p.PriceWithTax()),
		Collection:   p.CollectionID,
		Promotions:   p.Promotions,
		LastUpdate:   p.LastUpdate,
		Images:       make([]imageView, 0, len(p.Images)),
	}
	if v.Promotions == nil {
		v.Promotions = []int64{}
	}
	for _, img := range p.Images {
		v.Images = append(v.Images, newImageView(img))
	}
	return v
}

type simpleProductView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
}

type cartItemView struct {
	ID         int64             `json:"id"`
	Product    simpleProductView `json:"product"`
	Quantity   int               `json:"quantity"`
	TotalPrice string            `json:"total_price"`
}

func newCartItemView(it cart.Item) cartItemView {
	return cartItemView{
		ID: it.ID,
		Product: simpleProductView{
			ID:        it.Product.ID,
			Title:     it.Product.Title,
			UnitPrice: money(it.Product.UnitPrice),
		},
		Quantity:   it.Quantity,
		TotalPrice: money(it.TotalPrice()),
	}
}

func newCartItemViews(items []cart.Item) []cartItemView {
	out := make([]cartItemView, 0, len(items))
	for _, it := range items {
		out = append(out, newCartItemView(it))
	}
	return out
}

type cartView struct {
	ID         uuid.UUID      `json:"id"`
	Items      []cartItemView `json:"items"`
	TotalPrice string         `json:"total_price"`
}

func newCartView(c cart.Cart) cartView {
	return cartView{
		ID:         c.ID,
		Items:      newCartItemViews(c.Items),
		TotalPrice: money(c.TotalPrice()),
	}
}

type orderItemView struct {
	ID        int64             `json:"id"`
	Product   simpleProductView `json:"product"`
	Quantity  int               `json:"quantity"`
	UnitPrice string            `json:"unit_price"`
}

type orderView struct {
	ID            int64           `json:"id"`
	Customer      int64           `json:"customer"`
	PlacedAt      time.Time       `json:"placed_at"`
	PaymentStatus order.Status    `json:"payment_status"`
	Items         []orderItemView `json:"items"`
	TotalPrice    string          `json:"total_price"`
}

func newOrderView(o order.Order) orderView {
	v := orderView{
		ID:            o.ID,
		Customer:      o.CustomerID,
		PlacedAt:      o.PlacedAt,
		PaymentStatus: o.PaymentStatus,
		Items:         make([]orderItemView, 0, len(o.Items)),
		TotalPrice:    money(o.TotalPrice()),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ID: it.ID,
			Product: simpleProductView{
				ID:        it.Product.ID,
				Title:     it.Product.Title,
				UnitPrice: money(it.Product.UnitPrice),
			},
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
		})
	}
	return v
}

func newOrderViews(orders []order.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	return out
}
