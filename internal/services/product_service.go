package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50

	msgProductNotFound   = "Product not found"
	msgDuplicateSlug     = "Product with this slug already exists"
	msgCategoryNotFound  = "Category not found"
	msgInvalidCategoryID = "Invalid category id"
)

// ProductQuery holds the raw listing parameters.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string // category id or slug
}

// ProductPage is one page of the active catalog.
type ProductPage struct {
	Items      []models.Product `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalItems int64            `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
}

// CacheInvalidator drops cached copies of a product.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	cache    CacheInvalidator
	currency string
	logger   *zap.Logger
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(repo repositories.ProductRepository, cache CacheInvalidator, currency string, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		cache:    cache,
		currency: strings.ToUpper(currency),
		logger:   logger,
	}
}

// ListProducts returns one page of active products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := max(1, q.Page)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	result := &ProductPage{Items: []models.Product{}, Page: page, PageSize: limit}

	filter := repositories.ProductFilter{
		Search:     strings.TrimSpace(q.Search),
		ActiveOnly: true,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		id, err := s.resolveCategory(ctx, category)
		if err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return result, nil
			}
			return nil, apperr.Wrap(err)
		}
		filter.CategoryID = id
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if items != nil {
		result.Items = items
	}
	result.TotalItems = total
	result.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	return result, nil
}

func (s *ProductService) resolveCategory(ctx context.Context, idOrSlug string) (string, error) {
	if IsValidID(idOrSlug) {
		return idOrSlug, nil
	}
	category, err := s.repo.GetCategoryBySlug(ctx, strings.ToLower(idOrSlug))
	if err != nil {
		return "", err
	}
	return category.ID, nil
}

// GetProduct retrieves a single product by its ID, or by slug when idOrSlug is not an ID.
func (s *ProductService) GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)
	if IsValidID(idOrSlug) {
		product, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		product, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, apperr.NotFoundErr(msgProductNotFound)
		}
		return nil, apperr.Wrap(err)
	}
	return product, nil
}

// CreateProduct stores a new product, deriving the slug from the name when absent.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = ""
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	product.Slug = strings.ToLower(product.Slug)
	if product.Currency == "" {
		product.Currency = s.currency
	}
	product.Currency = strings.ToUpper(product.Currency)

	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return s.writeError(err)
	}
	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("slug", product.Slug))

	created, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return apperr.Wrap(err)
	}
	*product = *created
	return nil
}

// UpdateProduct applies a partial update to the product addressed by idOrSlug.
func (s *ProductService) UpdateProduct(ctx context.Context, idOrSlug string, update models.ProductUpdate) (*models.Product, error) {
	product, err := s.GetProduct(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	update.Apply(product)
	product.Slug = strings.ToLower(product.Slug)
	product.Currency = strings.ToUpper(product.Currency)
	if update.CategoryID != nil {
		if err := s.checkCategory(ctx, product.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, s.writeError(err)
	}
	s.invalidate(ctx, product.ID)
	s.logger.Info("product updated", zap.String("product_id", product.ID))

	updated, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return updated, nil
}

// DeleteProduct deletes the product addressed by idOrSlug.
func (s *ProductService) DeleteProduct(ctx context.Context, idOrSlug string) error {
	product, err := s.GetProduct(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return s.writeError(err)
	}
	s.invalidate(ctx, product.ID)
	s.logger.Info("product deleted", zap.String("product_id", product.ID))
	return nil
}

// EnsureCategory returns the category with slug, creating it when missing.
func (s *ProductService) EnsureCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	category, err := s.repo.GetCategoryBySlug(ctx, slug)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, repositories.ErrCategoryNotFound) {
		return nil, err
	}
	category = &models.Category{Name: name, Slug: slug}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category %s: %w", slug, err)
	}
	return category, nil
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	if !IsValidID(*categoryID) {
		return apperr.Invalid(msgInvalidCategoryID)
	}
	if _, err := s.repo.GetCategory(ctx, *categoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return apperr.NotFoundErr(msgCategoryNotFound)
		}
		return apperr.Wrap(err)
	}
	return nil
}

func (s *ProductService) writeError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateSlug):
		return apperr.ConflictErr(msgDuplicateSlug)
	case errors.Is(err, repositories.ErrProductNotFound):
		return apperr.NotFoundErr(msgProductNotFound)
	default:
		return apperr.Wrap(err)
	}
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}
}
