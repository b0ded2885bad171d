package auth

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, reg Registration) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
}

type PostgresUserRepository struct {
	pool db.Pool
}

func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create stores the user and its customer profile together.
func (r *PostgresUserRepository) Create(ctx context.Context, reg Registration) (User, error) {
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Permissions:  []string{},
		PasswordHash: hash,
	}
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO core_user (username, email, password, first_name, last_name)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName).Scan(&u.ID); err != nil {
			if constraint, ok := db.UniqueViolation(err); ok {
				if strings.Contains(constraint, "email") {
					return validate.FieldErrors{"email": {"user with this email already exists."}}
				}
				return validate.FieldErrors{"username": {"A user with that username already exists."}}
			}
			return errors.Wrap(err, "insert user")
		}
		_, err := customer.EnsureForUser(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

const selectUser = `SELECT id, username, email, first_name, last_name, is_staff, permissions, password FROM core_user`

func (r *PostgresUserRepository) get(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, selectUser+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.Permissions, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, errors.Wrap(err, "select user")
	}
	return u, nil
}

func (r *PostgresUserRepository) Get(ctx context.Context, id int64) (User, error) {
	return r.get(ctx, ` WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.get(ctx, ` WHERE username = $1`, username)
}

// Authenticate returns the user when the password matches.
func Authenticate(ctx context.Context, users UserRepository, creds Credentials) (User, error) {
	u, err := users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !CheckPassword(u.PasswordHash, creds.Password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
