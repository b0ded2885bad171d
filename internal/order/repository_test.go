package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lineColumns  = []string{"id", "title", "unit_price", "quantity"}
	itemColumns  = []string{"order_id", "id", "quantity", "unit_price", "product_id", "title", "product_unit_price"}
	orderColumns = []string{"id", "customer_id", "placed_at", "payment_status"}
	copyColumns  = []string{"order_id", "product_id", "quantity", "unit_price"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func expectCartLocked(mock pgxmock.PgxPoolIface, cartID uuid.UUID) {
	mock.ExpectQuery("FROM store_cart WHERE id = .+ FOR UPDATE").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
}

func TestPlace_CartWithOneItem(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	cartID := uuid.New()
	placedAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectCartLocked(mock, cartID)
	mock.ExpectQuery("FROM store_cartitem i").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows(lineColumns).AddRow(int64(1), "P1", "12.50", 2))
	mock.ExpectQuery("INSERT INTO store_customer").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery("INSERT INTO store_order").
		WithArgs(int64(3), "P").
		WillReturnRows(pgxmock.NewRows([]string{"id", "placed_at"}).AddRow(int64(100), placedAt))
	mock.ExpectCopyFrom(pgx.Identifier{"store_orderitem"}, copyColumns).WillReturnResult(1)
	mock.ExpectExec("DELETE FROM store_cart WHERE").
		WithArgs(cartID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery("FROM store_orderitem i").
		WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows(itemColumns).AddRow(int64(100), int64(500), 2, "12.50", int64(1), "P1", "12.50"))
	mock.ExpectCommit()

	o, err := repo.Place(ctx, cartID, 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(100), o.ID)
	assert.Equal(t, int64(3), o.CustomerID)
	assert.Equal(t, StatusPending, o.PaymentStatus)
	assert.Equal(t, placedAt, o.PlacedAt)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(1), o.Items[0].Product.ID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "12.5", o.Items[0].UnitPrice.String())
	assert.Equal(t, "25", o.TotalPrice().String())
}

func TestPlace_EmptyCartWritesNothing(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	cartID := uuid.New()

	mock.ExpectBegin()
	expectCartLocked(mock, cartID)
	mock.ExpectQuery("FROM store_cartitem i").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows(lineColumns))
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), cartID, 7)
	require.ErrorIs(t, err, ErrCartEmpty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_MissingCart(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	cartID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM store_cart WHERE id = .+ FOR UPDATE").
		WithArgs(cartID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), cartID, 7)
	require.ErrorIs(t, err, ErrCartNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_CopyFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	cartID := uuid.New()

	mock.ExpectBegin()
	expectCartLocked(mock, cartID)
	mock.ExpectQuery("FROM store_cartitem i").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows(lineColumns).AddRow(int64(1), "P1", "12.50", 2))
	mock.ExpectQuery("INSERT INTO store_customer").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery("INSERT INTO store_order").
		WithArgs(int64(3), "P").
		WillReturnRows(pgxmock.NewRows([]string{"id", "placed_at"}).AddRow(int64(100), time.Now()))
	mock.ExpectCopyFrom(pgx.Identifier{"store_orderitem"}, copyColumns).
		WillReturnError(errors.New("product row deleted"))
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), cartID, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy order items")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_ProductDeletedMidPlacement(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	cartID := uuid.New()

	mock.ExpectBegin()
	expectCartLocked(mock, cartID)
	mock.ExpectQuery("FROM store_cartitem i").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows(lineColumns).AddRow(int64(1), "P1", "12.50", 2))
	mock.ExpectQuery("INSERT INTO store_customer").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery("INSERT INTO store_order").
		WithArgs(int64(3), "P").
		WillReturnRows(pgxmock.NewRows([]string{"id", "placed_at"}).AddRow(int64(100), time.Now()))
	mock.ExpectCopyFrom(pgx.Identifier{"store_orderitem"}, copyColumns).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "store_orderitem_product_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), cartID, 7)
	require.ErrorIs(t, err, ErrCartChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScopedToCustomer(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM store_order WHERE customer_id = .+ ORDER BY id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(orderColumns).
			AddRow(int64(1), int64(3), now, "P").
			AddRow(int64(2), int64(3), now, "C"))
	mock.ExpectQuery("WHERE i.order_id = ANY").
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow(int64(1), int64(10), 1, "5.00", int64(4), "Tea", "6.00").
			AddRow(int64(2), int64(11), 3, "2.00", int64(5), "Milk", "2.00"))

	orders, err := repo.List(context.Background(), Scope{CustomerID: 3})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, StatusComplete, orders[1].PaymentStatus)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "5", orders[0].Items[0].UnitPrice.String())
	assert.Equal(t, "6", orders[0].Items[0].Product.UnitPrice.String())
	assert.Equal(t, "6", orders[1].TotalPrice().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("FROM store_order ORDER BY id").WillReturnRows(pgxmock.NewRows(orderColumns))

	orders, err := repo.List(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_OtherCustomersOrderIsNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("FROM store_order WHERE id = .+ AND customer_id").
		WithArgs(int64(9), int64(3)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), 9, Scope{CustomerID: 3})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectExec("UPDATE store_order SET payment_status").
		WithArgs(int64(4), "F").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := repo.UpdateStatus(ctx, 4, StatusFailed)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdateStatus(ctx, 4, Status("X"))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateValidate(t *testing.T) {
	require.NoError(t, Update{PaymentStatus: StatusComplete}.Validate())
	require.Error(t, Update{PaymentStatus: "X"}.Validate())
	require.Error(t, Create{}.Validate())
	require.NoError(t, Create{CartID: uuid.New()}.Validate())
}
