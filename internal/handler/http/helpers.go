package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/address"
	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/cart"
	"github.com/windly-shop/windly/internal/catalog"
	"github.com/windly-shop/windly/internal/review"
	"github.com/windly-shop/windly/internal/user"
)

// envelope is the uniform response shape: callers check success instead of
// relying on errors crossing the boundary.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.Error().Err(err).Msg("handler: failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: msg}); err != nil {
		log.Error().Err(err).Msg("handler: failed to encode error response")
	}
}

// respondDomainError maps domain sentinel errors onto HTTP statuses; anything
// unrecognized is a 500 with the detail kept out of the body.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, user.ErrUnknownProduct),
		errors.Is(err, user.ErrUnknownCart),
		errors.Is(err, user.ErrUnknownAddress):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, catalog.ErrOutOfStock),
		errors.Is(err, cart.ErrCartNotActive),
		errors.Is(err, cart.ErrNotCancellable),
		errors.Is(err, review.ErrAlreadyReviewed),
		errors.Is(err, review.ErrAlreadyVoted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidStatus),
		errors.Is(err, address.ErrEmptyPatch),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, catalog.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, address.ErrNotOwner),
		errors.Is(err, review.ErrNotOwner),
		errors.Is(err, cart.ErrNotOwner):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		log.Error().Err(err).Msg("handler: unexpected error")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondForbidden(w http.ResponseWriter, d auth.Decision) {
	respondError(w, http.StatusForbidden, d.Reason)
}

// identity pulls the authenticated caller from the request context; the auth
// middleware guarantees it is present on protected routes.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Identity{}, false
	}
	return id, true
}

func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// decodeAndValidate decodes the JSON body into dst and runs the struct
// validation tags, flattening failures into one readable message.
func decodeAndValidate(r *http.Request, validate *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
		}
		return fmt.Errorf("validation failed")
	}
	return nil
}
