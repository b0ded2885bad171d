package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

var orderCreated = eventKind{
	name:    "OrderCreated",
	version: 1,
	schema:  "contracts/events/order/OrderCreated.v1.payload.schema.json",
}

type OrderItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderCreatedPayload is the v1 payload. Prices are the order's snapshot
// prices, not the catalog's current ones.
type OrderCreatedPayload struct {
	OrderID       int64           `json:"orderId"`
	CartID        string          `json:"cartId"`
	UserID        int64           `json:"userId"`
	CustomerID    int64           `json:"customerId"`
	PaymentStatus string          `json:"paymentStatus"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PlacedAt      time.Time       `json:"placedAt"`
}

type OrderCreatedEnvelope = Envelope[OrderCreatedPayload]

func orderPartitionKey(orderID int64) string {
	return "order-" + strconv.FormatInt(orderID, 10)
}

// BuildOrderCreatedEnvelope wraps a freshly placed order for publishing.
func BuildOrderCreatedEnvelope(o order.Order, cartID uuid.UUID, userID int64, seq int64, tr Trace) OrderCreatedEnvelope {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return seal(orderCreated, orderPartitionKey(o.ID), seq, tr, OrderCreatedPayload{
		OrderID:       o.ID,
		CartID:        cartID.String(),
		UserID:        userID,
		CustomerID:    o.CustomerID,
		PaymentStatus: string(o.PaymentStatus),
		Items:         items,
		TotalAmount:   o.TotalPrice(),
		PlacedAt:      o.PlacedAt,
	})
}
