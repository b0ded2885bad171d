package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

type Product struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Item is an order line. UnitPrice is the product price when the order was placed.
type Item struct {
	ID        int64           `json:"id"`
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer"`
	PlacedAt      time.Time `json:"placed_at"`
	PaymentStatus Status    `json:"payment_status"`
	Items         []Item    `json:"items"`
}

func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type Create struct {
	CartID uuid.UUID `json:"cart_id" validate:"required"`
}

func (c Create) Validate() error {
	return validate.Struct(c).OrNil()
}

type Update struct {
	PaymentStatus Status `json:"payment_status" validate:"required,oneof=P C F"`
}

func (u Update) Validate() error {
	return validate.Struct(u).OrNil()
}
