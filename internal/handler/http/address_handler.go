package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/windly-shop/windly/internal/address"
	"github.com/windly-shop/windly/internal/auth"
)

type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required,min=2"`
	Phone      string `json:"phone" validate:"required,min=7"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Type       string `json:"address_type" validate:"omitempty,oneof=home office"`
}

type AddressHandler struct {
	svc      address.Service
	authz    auth.Authorizer
	validate *validator.Validate
}

func NewAddressHandler(svc address.Service, authz auth.Authorizer) *AddressHandler {
	return &AddressHandler{svc: svc, authz: authz, validate: validator.New()}
}

func (h *AddressHandler) RegisterRoutes(router chi.Router) {
	router.Get("/addresses", h.handleList)
	router.Post("/addresses", h.handleAdd)
	router.Patch("/addresses/{addressID}", h.handleUpdate)
	router.Put("/addresses/{addressID}/default", h.handleSetDefault)
	router.Delete("/addresses/{addressID}", h.handleDelete)
}

func (h *AddressHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	addresses, err := h.svc.ListAddresses(r.Context(), id.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, addresses)
}

func (h *AddressHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddressRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := &address.Address{
		UserID:     id.Subject,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Type:       address.Type(req.Type),
	}

	created, err := h.svc.AddAddress(r.Context(), a)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (h *AddressHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	addressID, err := urlUUID(r, "addressID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.svc.GetAddress(r.Context(), addressID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if d := h.authz.Authorize(id, auth.ActionOwnResource, a.UserID); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	var patch address.Patch
	if err := decodeAndValidate(r, h.validate, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.UpdateAddress(r.Context(), addressID, patch); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *AddressHandler) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	addressID, err := urlUUID(r, "addressID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ownership check lives here, not in the service: SetDefault is a raw
	// repoint used by internal flows too.
	a, err := h.svc.GetAddress(r.Context(), addressID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if d := h.authz.Authorize(id, auth.ActionOwnResource, a.UserID); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	if err := h.svc.SetDefault(r.Context(), addressID, id.Subject); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *AddressHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	addressID, err := urlUUID(r, "addressID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.DeleteAddress(r.Context(), addressID, id.Subject); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}
