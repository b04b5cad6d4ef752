package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/windly-shop/windly/internal/user"
)

type WishlistHandler struct {
	svc user.Service
}

func NewWishlistHandler(svc user.Service) *WishlistHandler {
	return &WishlistHandler{svc: svc}
}

func (h *WishlistHandler) RegisterRoutes(router chi.Router) {
	router.Get("/wishlist", h.handleList)
	router.Put("/wishlist/{productID}", h.handleAdd)
	router.Delete("/wishlist/{productID}", h.handleRemove)
}

func (h *WishlistHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	ids, err := h.svc.GetWishlist(r.Context(), id.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, ids)
}

func (h *WishlistHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.AddToWishlist(r.Context(), id.Subject, productID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *WishlistHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.RemoveFromWishlist(r.Context(), id.Subject, productID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}
