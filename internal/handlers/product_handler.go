package handlers

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// createProductRequest is the POST body; slug is derived from name when empty.
type createProductRequest struct {
	Name             string               `json:"name" validate:"required,max=180"`
	Slug             string               `json:"slug" validate:"omitempty,max=200"`
	Description      string               `json:"description" validate:"required"`
	ShortDescription string               `json:"shortDescription" validate:"omitempty,max=280"`
	Price            float64              `json:"price" validate:"gte=0"`
	Currency         string               `json:"currency" validate:"omitempty,len=3"`
	ImageURL         string               `json:"imageUrl" validate:"omitempty,url"`
	Images           []string             `json:"images" validate:"omitempty,dive,url"`
	CategoryID       string               `json:"categoryId" validate:"omitempty,uuid"`
	Tags             []string             `json:"tags"`
	Specs            []models.ProductSpec `json:"specs"`
	Stock            int                  `json:"stock" validate:"gte=0"`
	IsActive         *bool                `json:"isActive"`
}

func (r createProductRequest) toProduct() *models.Product {
	p := &models.Product{
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		Currency:         r.Currency,
		ImageURL:         r.ImageURL,
		Images:           r.Images,
		Tags:             r.Tags,
		Specs:            r.Specs,
		Stock:            r.Stock,
		IsActive:         true,
	}
	if r.CategoryID != "" {
		id := r.CategoryID
		p.CategoryID = &id
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p
}

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts returns one page of active products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(c.UserContext(), services.ProductQuery{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a product by ID or slug.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid(msgInvalidBody)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return err
	}

	product := req.toProduct()
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update to a product addressed by ID or slug.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var update models.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return apperr.Invalid(msgInvalidBody)
	}
	if err := validateStruct(h.validate, update); err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product updated",
		"product": product,
	})
}

// HandleDeleteProduct deletes a product addressed by ID or slug.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
