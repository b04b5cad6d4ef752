package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/cart"
)

type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	CartID    string `json:"cart_id" validate:"omitempty,uuid4"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1,lte=10"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequest carries the payment fields validated at the boundary.
// Payment capture itself happens with an external processor; the card number
// only ever passes a Luhn check here and is never stored.
type CheckoutRequest struct {
	CardHolder string `json:"card_holder" validate:"required,min=2"`
	CardNumber string `json:"card_number" validate:"required,credit_card"`
	ExpMonth   int    `json:"exp_month" validate:"required,gte=1,lte=12"`
	ExpYear    int    `json:"exp_year" validate:"required,gte=2020"`
	CVV        string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

type CartResponse struct {
	Cart          *cart.Cart          `json:"cart"`
	Items         []cart.DetailedItem `json:"items"`
	DisplayStatus string              `json:"display_status"`
	Cancellable   bool                `json:"cancellable"`
}

type CartHandler struct {
	svc      cart.Service
	authz    auth.Authorizer
	validate *validator.Validate
}

func NewCartHandler(svc cart.Service, authz auth.Authorizer) *CartHandler {
	return &CartHandler{svc: svc, authz: authz, validate: validator.New()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Post("/cart/items", h.handleAddItem)
	router.Get("/cart/{cartID}", h.handleGetCart)
	router.Get("/cart/{cartID}/count", h.handleItemCount)
	router.Patch("/cart/{cartID}/items/{productID}", h.handleUpdateItem)
	router.Delete("/cart/{cartID}/items/{productID}", h.handleRemoveItem)
	router.Delete("/cart/{cartID}/items", h.handleClearCart)
	router.Post("/cart/{cartID}/order", h.handleCheckout)

	router.Get("/orders", h.handleListOrders)
	router.Post("/orders/{cartID}/cancel", h.handleCancelOrder)
}

func (h *CartHandler) RegisterAdminRoutes(router chi.Router) {
	router.Put("/admin/orders/{cartID}/status", h.handleSetStatus)
	router.Post("/admin/orders/{cartID}/cancel", h.handleAdminCancel)
}

// ownedCart loads the cart and enforces that the caller owns it.
func (h *CartHandler) ownedCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, []cart.DetailedItem, auth.Identity, bool) {
	id, ok := identity(w, r)
	if !ok {
		return nil, nil, auth.Identity{}, false
	}

	cartID, err := urlUUID(r, "cartID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, id, false
	}

	c, items, err := h.svc.GetCart(r.Context(), cartID)
	if err != nil {
		respondDomainError(w, err)
		return nil, nil, id, false
	}
	if d := h.authz.Authorize(id, auth.ActionOwnResource, c.UserID); !d.Allowed {
		respondForbidden(w, d)
		return nil, nil, id, false
	}
	return c, items, id, true
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, items, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	now := time.Now()
	respond(w, http.StatusOK, CartResponse{
		Cart:          c,
		Items:         items,
		DisplayStatus: cart.DisplayStatus(c, now),
		Cancellable:   cart.CancellableBy(c, now),
	})
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	cartID := uuid.Nil
	if req.CartID != "" {
		if cartID, err = uuid.FromString(req.CartID); err != nil {
			respondError(w, http.StatusBadRequest, "invalid cart_id")
			return
		}
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	usedCart, err := h.svc.AddToCart(r.Context(), id.Subject, cartID, productID, qty)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"cart_id": usedCart})
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateQuantityRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.UpdateItemQuantity(r.Context(), c.ID, productID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.RemoveFromCart(r.Context(), c.ID, productID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}

	if err := h.svc.ClearCart(r.Context(), c.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *CartHandler) handleItemCount(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, map[string]int{"count": h.svc.ItemCount(r.Context(), c.ID)})
}

func (h *CartHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.OrderCart(r.Context(), c.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"order_id": c.ID})
}

func (h *CartHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), id.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	now := time.Now()
	type orderView struct {
		cart.Cart
		DisplayStatus string `json:"display_status"`
		Cancellable   bool   `json:"cancellable"`
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, orderView{
			Cart:          orders[i],
			DisplayStatus: cart.DisplayStatus(&orders[i], now),
			Cancellable:   cart.CancellableBy(&orders[i], now),
		})
	}
	respond(w, http.StatusOK, views)
}

// handleCancelOrder is the end-user path: only orders still in the pending
// display window may be cancelled.
func (h *CartHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	c, _, _, ok := h.ownedCart(w, r)
	if !ok {
		return
	}

	if !cart.CancellableBy(c, time.Now()) {
		respondDomainError(w, cart.ErrNotCancellable)
		return
	}

	if err := h.svc.CancelOrder(r.Context(), c.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *CartHandler) handleAdminCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if d := h.authz.Authorize(id, auth.ActionAdmin, ""); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	cartID, err := urlUUID(r, "cartID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.CancelOrder(r.Context(), cartID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *CartHandler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if d := h.authz.Authorize(id, auth.ActionAdmin, ""); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	cartID, err := urlUUID(r, "cartID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetStatus(r.Context(), cartID, cart.Status(req.Status)); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

// HandleSync is the external scheduler entry point: advance every ordered
// cart past the ship window. Mounted outside the auth middleware because the
// scheduler has no user identity; the response is the bare {success, error?}
// contract.
func (h *CartHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.svc.SyncAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]int{"advanced": advanced})
}
