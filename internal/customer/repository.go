package customer

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

var (
	ErrNotFound  = errors.New("customer not found")
	ErrHasOrders = errors.New("customer cannot be deleted because it has orders")
)

type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	GetByUserID(ctx context.Context, userID int64) (Customer, error)
	GetOrCreateForUser(ctx context.Context, userID int64) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Querier is the part of a pool or transaction needed to resolve a customer.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EnsureForUser returns the id of the user's customer row, creating it with
// default values on first use. It runs on q so it can join a caller's transaction.
func EnsureForUser(ctx context.Context, q Querier, userID int64) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO store_customer (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`, userID).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "ensure customer")
	}
	return id, nil
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectCustomer = `
	SELECT c.id, c.user_id, u.first_name, u.last_name, c.phone, c.birth_date, c.membership
	FROM store_customer c
	JOIN core_user u ON u.id = c.user_id`

func scanCustomer(row pgx.Row, c *Customer) error {
	var birth pgtype.Date
	var membership string
	if err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Phone, &birth, &membership); err != nil {
		return err
	}
	c.Membership = Membership(membership)
	c.BirthDate = nil
	if birth.Valid {
		c.BirthDate = &Date{Time: birth.Time}
	}
	return nil
}

func birthDateArg(d *Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, selectCustomer+`
	ORDER BY u.first_name, u.last_name, c.id`)
	if err != nil {
		return nil, errors.Wrap(err, "select customers")
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		customers = append(customers, c)
	}
	return customers, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg int64) (Customer, error) {
	var c Customer
	if err := scanCustomer(r.pool.QueryRow(ctx, selectCustomer+where, arg), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, errors.Wrap(err, "select customer")
	}
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Customer, error) {
	return r.get(ctx, ` WHERE c.id = $1`, id)
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (Customer, error) {
	return r.get(ctx, ` WHERE c.user_id = $1`, userID)
}

func (r *PostgresRepository) GetOrCreateForUser(ctx context.Context, userID int64) (Customer, error) {
	id, err := EnsureForUser(ctx, r.pool, userID)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.Membership == "" {
		c.Membership = MembershipBronze
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO store_customer (user_id, phone, birth_date, membership)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.UserID, c.Phone, birthDateArg(c.BirthDate), string(c.Membership)).Scan(&id)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return Customer{}, validate.FieldErrors{"user_id": {"customer with this user already exists."}}
		}
		if _, ok := db.ForeignKeyViolation(err); ok {
			return Customer{}, validate.FieldErrors{"user_id": {"Invalid pk - object does not exist."}}
		}
		return Customer{}, errors.Wrap(err, "insert customer")
	}
	return r.Get(ctx, id)
}

// Update changes the profile fields; user_id is fixed once the row exists.
func (r *PostgresRepository) Update(ctx context.Context, c Customer) (Customer, error) {
	if c.Membership == "" {
		c.Membership = MembershipBronze
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE store_customer SET phone = $2, birth_date = $3, membership = $4
		WHERE id = $1
	`, c.ID, c.Phone, birthDateArg(c.BirthDate), string(c.Membership))
	if err != nil {
		return Customer{}, errors.Wrap(err, "update customer")
	}
	if tag.RowsAffected() == 0 {
		return Customer{}, ErrNotFound
	}
	return r.Get(ctx, c.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_customer WHERE id = $1`, id)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return ErrHasOrders
		}
		return errors.Wrap(err, "delete customer")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
