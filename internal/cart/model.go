package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

// MaxQuantity is the largest quantity a cart line can hold (SMALLINT column).
const MaxQuantity = 32767

type Product struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Item struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (it Item) TotalPrice() decimal.Decimal {
	return it.Product.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Cart struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.TotalPrice())
	}
	return total
}

// AddItem is the payload for putting a product in a cart. Adding a product that
// is already there increases its quantity.
type AddItem struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1,max=32767"`
}

func (a AddItem) Validate() error {
	return validate.Struct(a).OrNil()
}

// UpdateItem replaces the quantity of an existing line.
type UpdateItem struct {
	Quantity int `json:"quantity" validate:"gte=1,max=32767"`
}

func (u UpdateItem) Validate() error {
	return validate.Struct(u).OrNil()
}
