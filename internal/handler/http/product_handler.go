package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/catalog"
)

type ProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Discount    int      `json:"discount" validate:"gte=0,lte=100"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
	Tags        []string `json:"tags"`
	About       []string `json:"about"`
}

type ProductHandler struct {
	svc      catalog.Service
	authz    auth.Authorizer
	validate *validator.Validate
}

func NewProductHandler(svc catalog.Service, authz auth.Authorizer) *ProductHandler {
	return &ProductHandler{svc: svc, authz: authz, validate: validator.New()}
}

func (h *ProductHandler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/products", h.handleList)
	router.Get("/products/{productID}", h.handleGet)
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreate)
	router.Put("/products/{productID}", h.handleUpdate)
	router.Delete("/products/{productID}", h.handleDelete)
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("q"),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		filter.Offset = offset
	}

	products, err := h.svc.ListProducts(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if d := h.authz.Authorize(id, auth.ActionCatalogWrite, ""); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	var req ProductRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := productFromRequest(&req)
	p.SellerID = id.Subject

	created, err := h.svc.CreateProduct(r.Context(), p)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if d := h.authz.Authorize(id, auth.ActionCatalogWrite, ""); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ProductRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := productFromRequest(&req)
	p.ID = productID

	if err := h.svc.UpdateProduct(r.Context(), p); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if d := h.authz.Authorize(id, auth.ActionCatalogWrite, ""); !d.Allowed {
		respondForbidden(w, d)
		return
	}

	productID, err := urlUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), productID); err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func productFromRequest(req *ProductRequest) *catalog.Product {
	return &catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Stock:       req.Stock,
		Category:    req.Category,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Tags:        req.Tags,
		About:       req.About,
	}
}
