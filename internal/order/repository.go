package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrCartNotFound = errors.New("no cart with the given id was found")
	ErrCartEmpty    = errors.New("the cart is empty")
	// ErrCartChanged means a product in the cart was deleted mid-placement.
	ErrCartChanged = errors.New("cart changed during placement")
)

// Scope limits reads to one customer's orders. The zero value sees every order.
type Scope struct {
	CustomerID int64
}

func (s Scope) all() bool { return s.CustomerID == 0 }

type Repository interface {
	List(ctx context.Context, scope Scope) ([]Order, error)
	Get(ctx context.Context, id int64, scope Scope) (Order, error)
	Place(ctx context.Context, cartID uuid.UUID, userID int64) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Order, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Place turns the cart into an order for the user's customer and removes the cart.
//
// Everything happens in one transaction: the cart row is locked first so a
// second placement for the same cart waits, then finds the cart gone.
func (r *PostgresRepository) Place(ctx context.Context, cartID uuid.UUID, userID int64) (Order, error) {
	var o Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var createdAt time.Time
		if err := tx.QueryRow(ctx,
			`SELECT created_at FROM store_cart WHERE id = $1 FOR UPDATE`, cartID,
		).Scan(&createdAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCartNotFound
			}
			return errors.Wrap(err, "lock cart")
		}

		lines, err := cartLines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		customerID, err := customer.EnsureForUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		o = Order{CustomerID: customerID, PaymentStatus: StatusPending}
		if err := tx.QueryRow(ctx, `
			INSERT INTO store_order (customer_id, payment_status, placed_at)
			VALUES ($1, $2, NOW())
			RETURNING id, placed_at
		`, customerID, string(StatusPending)).Scan(&o.ID, &o.PlacedAt); err != nil {
			return errors.Wrap(err, "insert order")
		}

		rows := make([][]any, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []any{o.ID, l.Product.ID, l.Quantity, db.Numeric(l.UnitPrice)})
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"store_orderitem"},
			[]string{"order_id", "product_id", "quantity", "unit_price"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			if _, ok := db.ForeignKeyViolation(err); ok {
				return ErrCartChanged
			}
			return errors.Wrap(err, "copy order items")
		}
		if int(n) != len(lines) {
			return errors.Errorf("copy order items: wrote %d of %d", n, len(lines))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM store_cart WHERE id = $1`, cartID); err != nil {
			return errors.Wrap(err, "delete cart")
		}

		o.Items, err = orderItems(ctx, tx, o.ID)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// cartLines reads the cart with each product's current price.
func cartLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) ([]Item, error) {
	rows, err := tx.Query(ctx, `
		SELECT p.id, p.title, p.unit_price, i.quantity
		FROM store_cartitem i
		JOIN store_product p ON p.id = i.product_id
		WHERE i.cart_id = $1
		ORDER BY i.id
	`, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "select cart lines")
	}
	defer rows.Close()

	var lines []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Product.ID, &it.Product.Title, &it.Product.UnitPrice, &it.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan cart line")
		}
		it.UnitPrice = it.Product.UnitPrice
		lines = append(lines, it)
	}
	return lines, errors.Wrap(rows.Err(), "rows")
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectItems = `
	SELECT i.order_id, i.id, i.quantity, i.unit_price, p.id, p.title, p.unit_price
	FROM store_orderitem i
	JOIN store_product p ON p.id = i.product_id`

func scanItems(rows pgx.Rows, into func(orderID int64, it Item)) error {
	defer rows.Close()
	for rows.Next() {
		var (
			orderID int64
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ID, &it.Quantity, &it.UnitPrice, &it.Product.ID, &it.Product.Title, &it.Product.UnitPrice); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		into(orderID, it)
	}
	return errors.Wrap(rows.Err(), "rows")
}

func orderItems(ctx context.Context, q querier, orderID int64) ([]Item, error) {
	rows, err := q.Query(ctx, selectItems+`
	WHERE i.order_id = $1
	ORDER BY i.id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	items := []Item{}
	err = scanItems(rows, func(_ int64, it Item) { items = append(items, it) })
	return items, err
}

func (r *PostgresRepository) List(ctx context.Context, scope Scope) ([]Order, error) {
	query := `SELECT id, customer_id, placed_at, payment_status FROM store_order`
	var args []any
	if !scope.all() {
		query += ` WHERE customer_id = $1`
		args = append(args, scope.CustomerID)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	orders := []Order{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			o      Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &status); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		o.PaymentStatus = Status(status)
		o.Items = []Item{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	itemRows, err := r.pool.Query(ctx, selectItems+`
	WHERE i.order_id = ANY($1)
	ORDER BY i.id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	err = scanItems(itemRows, func(orderID int64, it Item) {
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64, scope Scope) (Order, error) {
	query := `SELECT id, customer_id, placed_at, payment_status FROM store_order WHERE id = $1`
	args := []any{id}
	if !scope.all() {
		query += ` AND customer_id = $2`
		args = append(args, scope.CustomerID)
	}

	var (
		o      Order
		status string
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, errors.Wrap(err, "select order")
	}
	o.PaymentStatus = Status(status)

	items, err := orderItems(ctx, r.pool, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// UpdateStatus is the only change an order accepts after it is placed.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, errors.Errorf("invalid payment status %q", status)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE store_order SET payment_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return Order{}, errors.Wrap(err, "update order status")
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrNotFound
	}
	return r.Get(ctx, id, Scope{})
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_order WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
