package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockProductRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockProductRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

// MockInvalidator is a mock implementation of services.CacheInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestProductService_ListProductsPaging(t *testing.T) {
	tests := []struct {
		name       string
		query      services.ProductQuery
		wantOffset int
		wantLimit  int
		wantPage   int
	}{
		{"defaults", services.ProductQuery{}, 0, 12, 1},
		{"second page", services.ProductQuery{Page: 2, Limit: 5}, 5, 5, 2},
		{"limit capped", services.ProductQuery{Page: 1, Limit: 500}, 0, 50, 1},
		{"negative page", services.ProductQuery{Page: -3, Limit: 10}, 0, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			service := services.NewProductService(repo, nil, "USD", zap.NewNop())

			repo.On("List", mock.Anything, repositories.ProductFilter{
				ActiveOnly: true,
				Offset:     tt.wantOffset,
				Limit:      tt.wantLimit,
			}).Return([]models.Product{{Name: "A"}}, int64(23), nil).Once()

			page, err := service.ListProducts(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantLimit, page.PageSize)
			assert.Equal(t, int64(23), page.TotalItems)
			expectedPages := (23 + tt.wantLimit - 1) / tt.wantLimit
			assert.Equal(t, expectedPages, page.TotalPages)
			repo.AssertExpectations(t)
		})
	}
}

func TestProductService_ListProductsByCategory(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil, "USD", zap.NewNop())
	ctx := context.Background()

	cat, err := service.EnsureCategory(ctx, "Audio", "audio")
	require.NoError(t, err)
	again, err := service.EnsureCategory(ctx, "Audio", "audio")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	require.NoError(t, service.CreateProduct(ctx, &models.Product{Name: "Headphones", Description: "Over-ear", Price: 99, IsActive: true, CategoryID: &cat.ID}))
	require.NoError(t, service.CreateProduct(ctx, &models.Product{Name: "Laptop", Description: "Fast", Price: 999, IsActive: true}))

	bySlug, err := service.ListProducts(ctx, services.ProductQuery{Category: "audio"})
	require.NoError(t, err)
	require.Len(t, bySlug.Items, 1)
	assert.Equal(t, "Headphones", bySlug.Items[0].Name)

	byID, err := service.ListProducts(ctx, services.ProductQuery{Category: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byID.TotalItems)

	unknown, err := service.ListProducts(ctx, services.ProductQuery{Category: "garden"})
	require.NoError(t, err)
	assert.Empty(t, unknown.Items)
	assert.NotNil(t, unknown.Items)
	assert.Equal(t, 0, unknown.TotalPages)
}

func TestProductService_ListProductsRepositoryError(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil, "USD", zap.NewNop())

	repo.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("db down")).Once()

	_, err := service.ListProducts(context.Background(), services.ProductQuery{})
	assert.True(t, apperr.Is(err, apperr.Internal))
	repo.AssertExpectations(t)
}

func TestProductService_GetProduct(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil, "USD", zap.NewNop())
	ctx := context.Background()

	id := uuid.NewString()
	expected := &models.Product{ID: id, Name: "Product A", Slug: "product-a", Price: 10.0, Stock: 100}

	repo.On("GetByID", mock.Anything, id).Return(expected, nil).Once()
	product, err := service.GetProduct(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, expected, product)

	repo.On("GetBySlug", mock.Anything, "product-a").Return(expected, nil).Once()
	product, err = service.GetProduct(ctx, "product-a")
	assert.NoError(t, err)
	assert.Equal(t, expected, product)

	repo.On("GetBySlug", mock.Anything, "missing").
		Return(nil, fmt.Errorf("product missing: %w", repositories.ErrProductNotFound)).Once()
	product, err = service.GetProduct(ctx, "missing")
	assert.Nil(t, product)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, "Product not found", apperr.PublicMessage(err))

	repo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil, "usd", zap.NewNop())
	ctx := context.Background()

	product := &models.Product{Name: "Noise Cancelling Headphones!", Description: "Quiet", Price: 199.5, IsActive: true}
	require.NoError(t, service.CreateProduct(ctx, product))
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "noise-cancelling-headphones", product.Slug)
	assert.Equal(t, "USD", product.Currency)

	dup := &models.Product{Name: "Other", Slug: "Noise-Cancelling-Headphones", Description: "Dup", IsActive: true}
	err := service.CreateProduct(ctx, dup)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Equal(t, 409, apperr.HTTPStatus(err))
	assert.Equal(t, "Product with this slug already exists", apperr.PublicMessage(err))

	missingCat := uuid.NewString()
	err = service.CreateProduct(ctx, &models.Product{Name: "Orphan", Description: "x", CategoryID: &missingCat})
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, 404, apperr.HTTPStatus(err))
	assert.Equal(t, "Category not found", apperr.PublicMessage(err))

	badCat := "not-a-uuid"
	err = service.CreateProduct(ctx, &models.Product{Name: "Orphan", Description: "x", CategoryID: &badCat})
	assert.True(t, apperr.Is(err, apperr.InvalidRequest))
	assert.Equal(t, "Invalid category id", apperr.PublicMessage(err))
}

func TestProductService_UpdateProductInvalidatesCache(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	invalidator := new(MockInvalidator)
	service := services.NewProductService(repo, invalidator, "USD", zap.NewNop())
	ctx := context.Background()

	product := &models.Product{Name: "Lamp", Description: "Bright", Price: 20, IsActive: true, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, service.CreateProduct(ctx, product))

	invalidator.On("Invalidate", mock.Anything, product.ID).Return(nil).Twice()

	price := 25.0
	active := false
	updated, err := service.UpdateProduct(ctx, "lamp", models.ProductUpdate{Price: &price, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Bright", updated.Description)

	_, err = service.UpdateProduct(ctx, uuid.NewString(), models.ProductUpdate{Price: &price})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, service.DeleteProduct(ctx, product.ID))
	err = service.DeleteProduct(ctx, product.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	invalidator.AssertExpectations(t)
}

func TestProductService_UpdateProductSlugConflict(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil, "USD", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, service.CreateProduct(ctx, &models.Product{Name: "Lamp", Description: "a", IsActive: true}))
	require.NoError(t, service.CreateProduct(ctx, &models.Product{Name: "Desk", Description: "b", IsActive: true}))

	slug := "lamp"
	_, err := service.UpdateProduct(ctx, "desk", models.ProductUpdate{Slug: &slug})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "mechanical-keyboard-v2", services.Slugify("  Mechanical Keyboard (v2) "))
	assert.Equal(t, "product", services.Slugify("!!!"))
}

func TestIsValidID(t *testing.T) {
	assert.True(t, services.IsValidID(uuid.NewString()))
	assert.False(t, services.IsValidID(""))
	assert.False(t, services.IsValidID("123"))
	assert.False(t, services.IsValidID("{"+uuid.NewString()+"}"))
}
