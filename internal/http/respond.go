package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

const maxJSONBody = 1 << 20

type detailResponse struct {
	Detail string `json:"detail"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeNotFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, validate.FieldErrors{field: {msg}})
}

// writeInternal logs err with the request's fields and hides it from the client.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r).WithError(err).Error("request failed")
	writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
}

// writeValidation answers 400 with field errors, or 500 when err is something else.
func writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, fe)
		return
	}
	writeInternal(w, r, err)
}

// decodeJSON reads the request body into v. It writes the 400 itself and
// reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusBadRequest, "JSON parse error - request body is empty")
			return false
		}
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

type validator interface {
	Validate() error
}

// decodeValid decodes then validates v, answering 400 on either failure.
func decodeValid(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		writeValidation(w, r, err)
		return false
	}
	return true
}

func requestLogger(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(ctxLogger).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
