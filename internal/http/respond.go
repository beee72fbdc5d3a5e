package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/service"
)

// ErrorResponse is the body of every non-2xx reply. Missing keeps the
// per-field boolean form older clients read; MissingFields lists the same
// names in request order.
type ErrorResponse struct {
	Message       string          `json:"message"`
	Code          string          `json:"code,omitempty"`
	Details       string          `json:"details,omitempty"`
	Missing       map[string]bool `json:"missing,omitempty"`
	MissingFields []string        `json:"missingFields,omitempty"`
	InvalidFields []string        `json:"invalidFields,omitempty"`
}

var errForbidden = errors.New("token does not match the requested user")

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// handleServiceError converts the service error taxonomy to HTTP statuses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var serr *service.StoreError

	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse{
			Message:       "Missing required fields",
			Code:          "validation_failed",
			MissingFields: verr.Missing,
			InvalidFields: verr.Invalid,
		}
		if len(verr.Missing) == 0 {
			resp.Message = "Invalid fields"
		} else {
			resp.Missing = make(map[string]bool, len(verr.Missing))
			for _, f := range verr.Missing {
				resp.Missing[f] = true
			}
		}
		respondJSON(w, r, http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrDuplicateItem):
		respondError(w, r, http.StatusBadRequest, "duplicate_item", "Service already added to cart")
	case errors.Is(err, service.ErrNotAuthenticated):
		respondError(w, r, http.StatusUnauthorized, "unauthenticated", "user is not authenticated")
	case errors.Is(err, errForbidden):
		respondError(w, r, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		respondError(w, r, http.StatusConflict, "illegal_transition", err.Error())
	case errors.As(err, &serr):
		logger.FromContext(r.Context()).Error("store failure", "op", serr.Op, "error", serr.Err)
		respondJSON(w, r, http.StatusInternalServerError, ErrorResponse{
			Message: "Server error",
			Code:    "store_error",
			Details: serr.Err.Error(),
		})
	default:
		logger.FromContext(r.Context()).Error("unhandled error", "error", err)
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads a JSON body; an empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
