package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/review"
)

type ReviewRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title     string `json:"title" validate:"max=200"`
	Body      string `json:"body" validate:"max=5000"`
}

type ReviewUpdateRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title  string `json:"title" validate:"max=200"`
	Body   string `json:"body" validate:"max=5000"`
}

type ReviewHandler struct {
	svc      review.Service
	authz    auth.Authorizer
	validate *validator.Validate
}

func NewReviewHandler(svc review.Service, authz auth.Authorizer) *ReviewHandler {
	return &ReviewHandler{svc: svc, authz: authz, validate: validator.New()}
}

func (h *ReviewHandler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/products/{productID}/reviews", h.handleListByProduct)
	router.Get("/products/{productID}/reviews/summary", h.handleSummary)
}

func (h *ReviewHandler) RegisterRoutes(router chi.Router) {
	router.Post("/reviews", h.handleCreate)
	router.Put("/reviews/{reviewID}", h.handleUpdate)
	router.Delete("/reviews/{reviewID}", h.handleDelete)
	router.Post("/reviews/{reviewID}/helpful", h.handleMarkHelpful)
}

func (h *ReviewHandler) handleListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reviews, err := h.svc.ListByProduct(r.Context(), productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.ProductSummary(r.Context(), productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *ReviewHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	rv := &review.Review{
		ProductID: productID,
		UserID:    id.Subject,
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
	}

	created, err := h.svc.CreateReview(r.Context(), rv)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (h *ReviewHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := urlUUID(r, "reviewID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ReviewUpdateRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.UpdateReview(r.Context(), reviewID, id.Subject, req.Rating, req.Title, req.Body); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *ReviewHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := urlUUID(r, "reviewID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.DeleteReview(r.Context(), reviewID, id.Subject); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *ReviewHandler) handleMarkHelpful(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := urlUUID(r, "reviewID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.MarkHelpful(r.Context(), reviewID, id.Subject); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}
