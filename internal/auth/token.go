package auth

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims identify the caller on every authenticated request.
type Claims struct {
	UserID      int64    `json:"user_id"`
	IsStaff     bool     `json:"is_staff"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
	jwt.StandardClaims
}

func (c Claims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (i *Issuer) Issue(u User) (TokenPair, error) {
	access, err := i.sign(u.claims(), tokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(u.claims(), tokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Refresh: refresh, Access: access}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (i *Issuer) Refresh(refreshToken string) (string, error) {
	c, err := i.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return i.sign(c, tokenTypeAccess, i.accessTTL)
}

// Parse verifies an access token.
func (i *Issuer) Parse(token string) (Claims, error) {
	return i.parse(token, tokenTypeAccess)
}

func (i *Issuer) sign(c Claims, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	c.TokenType = tokenType
	c.StandardClaims = jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (i *Issuer) parse(token, tokenType string) (Claims, error) {
	var c Claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid || c.TokenType != tokenType || c.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// TokenFromHeader extracts the token from "JWT <token>" or "Bearer <token>".
func TokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "JWT") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
