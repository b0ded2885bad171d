package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

var (
	MinUnitPrice = decimal.NewFromInt(1)
	MaxUnitPrice = decimal.RequireFromString("9999.99")
	taxRate      = decimal.RequireFromString("1.1")
)

const MinInventory = 1

type Collection struct {
	ID            int64  `json:"id"`
	Title         string `json:"title" validate:"required,max=255"`
	ProductsCount int    `json:"products_count"`
}

func (c Collection) Validate() error {
	return validate.Struct(c).OrNil()
}

type Promotion struct {
	ID          int64   `json:"id"`
	Description string  `json:"description" validate:"required,max=255"`
	Discount    float64 `json:"discount" validate:"gte=0"`
}

func (p Promotion) Validate() error {
	return validate.Struct(p).OrNil()
}

type Product struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title" validate:"required,max=255"`
	Slug         string          `json:"slug" validate:"required,max=255"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory"`
	LastUpdate   time.Time       `json:"last_update"`
	CollectionID int64           `json:"collection" validate:"gt=0"`
	Promotions   []int64         `json:"promotions"`
	Images       []ProductImage  `json:"images"`
}

// Validate mirrors the column constraints so bad input never reaches the database.
func (p Product) Validate() error {
	fe := validate.Struct(p)
	if p.UnitPrice.LessThan(MinUnitPrice) {
		fe.Add("unit_price", "Ensure this value is greater than or equal to "+MinUnitPrice.String()+".")
	}
	if p.UnitPrice.GreaterThan(MaxUnitPrice) {
		fe.Add("unit_price", "Ensure this value is less than or equal to "+MaxUnitPrice.String()+".")
	}
	if !p.UnitPrice.Equal(p.UnitPrice.Round(2)) {
		fe.Add("unit_price", "Ensure that there are no more than 2 decimal places.")
	}
	if p.Inventory < MinInventory {
		fe.Add("inventory", "Ensure this value is greater than or equal to 1.")
	}
	return fe.OrNil()
}

func (p Product) PriceWithTax() decimal.Decimal {
	return p.UnitPrice.Mul(taxRate).Round(2)
}

type ProductImage struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"-"`
	Image     string `json:"image"`
}

type Review struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"-"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date"`
}

func (r Review) Validate() error {
	return validate.Struct(r).OrNil()
}

type Ordering string

const (
	OrderByDefault        Ordering = ""
	OrderByPriceAsc       Ordering = "unit_price"
	OrderByPriceDesc      Ordering = "-unit_price"
	OrderByLastUpdateAsc  Ordering = "last_update"
	OrderByLastUpdateDesc Ordering = "-last_update"
)

func (o Ordering) Valid() bool {
	switch o {
	case OrderByDefault, OrderByPriceAsc, OrderByPriceDesc, OrderByLastUpdateAsc, OrderByLastUpdateDesc:
		return true
	}
	return false
}

// ProductQuery filters the product listing. Zero values mean "no filter".
type ProductQuery struct {
	CollectionID int64
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string
	Ordering     Ordering
	Limit        int
	Offset       int
}

type ProductPage struct {
	Count    int
	Products []Product
}
