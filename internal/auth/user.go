package auth

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

var ErrInvalidCredentials = errors.New("no active account found with the given credentials")

type User struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	IsStaff      bool     `json:"-"`
	Permissions  []string `json:"-"`
	PasswordHash string   `json:"-"`
}

func (u User) claims() Claims {
	return Claims{UserID: u.ID, IsStaff: u.IsStaff, Permissions: u.Permissions}
}

type Registration struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (r Registration) Validate() error {
	fe := validate.Struct(r)
	if _, flagged := fe["password"]; !flagged && len(r.Password) > maxPasswordBytes {
		fe.Add("password", "Ensure this field has no more than 72 bytes.")
	}
	return fe.OrNil()
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c Credentials) Validate() error {
	return validate.Struct(c).OrNil()
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
