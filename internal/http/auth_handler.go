package httpapi

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
)

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var reg auth.Registration
	if !decodeValid(w, r, &reg) {
		return
	}
	u, err := h.users.Create(r.Context(), reg)
	if err != nil {
		writeValidation(w, r, err)
		return
	}
	requestLogger(r).WithField("user_id", u.ID).Info("user registered")
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w)
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !decodeValid(w, r, &creds) {
		return
	}
	u, err := auth.Authenticate(r.Context(), h.users, creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
			return
		}
		writeInternal(w, r, err)
		return
	}
	pair, err := h.tokens.Issue(u)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		writeFieldError(w, "refresh", "This field may not be blank.")
		return
	}
	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Token is invalid or expired",
				"code":   "token_not_valid",
			})
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
