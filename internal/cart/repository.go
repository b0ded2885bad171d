package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
)

var (
	ErrNotFound        = errors.New("cart not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrQuantityLimit   = errors.New("cart item quantity over limit")
)

type Repository interface {
	Create(ctx context.Context) (Cart, error)
	Get(ctx context.Context, id uuid.UUID) (Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]Item, error)
	GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (Item, error)
	AddItem(ctx context.Context, cartID uuid.UUID, add AddItem) (Item, error)
	UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, upd UpdateItem) (Item, error)
	DeleteItem(ctx context.Context, cartID uuid.UUID, itemID int64) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context) (Cart, error) {
	c := Cart{ID: uuid.New(), Items: []Item{}}
	if err := r.pool.QueryRow(ctx,
		`INSERT INTO store_cart (id, created_at) VALUES ($1, NOW()) RETURNING created_at`, c.ID,
	).Scan(&c.CreatedAt); err != nil {
		return Cart{}, errors.Wrap(err, "insert cart")
	}
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Cart, error) {
	c := Cart{ID: id}
	if err := r.pool.QueryRow(ctx,
		`SELECT created_at FROM store_cart WHERE id = $1`, id,
	).Scan(&c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, errors.Wrap(err, "select cart")
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_cart WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete cart")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, id uuid.UUID) error {
	var ok bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM store_cart WHERE id = $1)`, id,
	).Scan(&ok); err != nil {
		return errors.Wrap(err, "cart exists")
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

const selectItem = `
	SELECT i.id, i.quantity, p.id, p.title, p.unit_price
	FROM store_cartitem i
	JOIN store_product p ON p.id = i.product_id`

func scanItem(row pgx.Row, it *Item) error {
	return row.Scan(&it.ID, &it.Quantity, &it.Product.ID, &it.Product.Title, &it.Product.UnitPrice)
}

// ListItems returns the lines of an existing cart; a missing cart is ErrNotFound.
func (r *PostgresRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]Item, error) {
	if err := r.exists(ctx, cartID); err != nil {
		return nil, err
	}
	return r.listItems(ctx, cartID)
}

func (r *PostgresRepository) listItems(ctx context.Context, cartID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, selectItem+`
	WHERE i.cart_id = $1
	ORDER BY i.id`, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "select cart items")
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := scanItem(rows, &it); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		items = append(items, it)
	}
	return items, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (Item, error) {
	var it Item
	if err := scanItem(r.pool.QueryRow(ctx, selectItem+`
	WHERE i.cart_id = $1 AND i.id = $2`, cartID, itemID), &it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, errors.Wrap(err, "select cart item")
	}
	return it, nil
}

// AddItem inserts the product into the cart, or bumps the quantity when the
// product is already there. A bump past MaxQuantity leaves the line untouched
// and returns ErrQuantityLimit.
func (r *PostgresRepository) AddItem(ctx context.Context, cartID uuid.UUID, add AddItem) (Item, error) {
	var it Item
	err := scanItem(r.pool.QueryRow(ctx, `
		WITH upserted AS (
			INSERT INTO store_cartitem (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = store_cartitem.quantity + EXCLUDED.quantity
			WHERE store_cartitem.quantity::int + EXCLUDED.quantity <= $4
			RETURNING id, product_id, quantity
		)
		SELECT u.id, u.quantity, p.id, p.title, p.unit_price
		FROM upserted u
		JOIN store_product p ON p.id = u.product_id
	`, cartID, add.ProductID, add.Quantity, MaxQuantity), &it)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrQuantityLimit
		}
		if constraint, ok := db.ForeignKeyViolation(err); ok {
			if strings.Contains(constraint, "product") {
				return Item{}, ErrProductNotFound
			}
			return Item{}, ErrNotFound
		}
		return Item{}, errors.Wrap(err, "upsert cart item")
	}
	return it, nil
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, upd UpdateItem) (Item, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE store_cartitem SET quantity = $3 WHERE cart_id = $1 AND id = $2`,
		cartID, itemID, upd.Quantity)
	if err != nil {
		return Item{}, errors.Wrap(err, "update cart item")
	}
	if tag.RowsAffected() == 0 {
		return Item{}, ErrItemNotFound
	}
	return r.GetItem(ctx, cartID, itemID)
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_cartitem WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
