package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	msgEmptyCart          = "Cart cannot be empty."
	msgInvalidProductID   = "Invalid product identifier."
	msgInvalidQuantity    = "Quantity must be greater than zero."
	msgProductUnavailable = "One of the products is unavailable."

	maxConcurrentLookups = 8
)

// CartItem is one requested line of a checkout.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PricingConfig holds the pricing inputs read from configuration.
type PricingConfig struct {
	TaxRate  float64
	Currency string
}

// Quote is a priced cart. Amounts are rounded to cents.
type Quote struct {
	Items       []models.OrderItem
	Subtotal    float64
	Tax         float64
	TotalAmount float64
	Currency    string
}

// ProductLookup resolves a catalog product by id.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// PricingCalculator turns cart lines into order line snapshots and totals.
type PricingCalculator struct {
	products ProductLookup
	taxRate  decimal.Decimal
	currency string
}

func NewPricingCalculator(products ProductLookup, cfg PricingConfig) *PricingCalculator {
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = "USD"
	}
	return &PricingCalculator{
		products: products,
		taxRate:  decimal.NewFromFloat(cfg.TaxRate),
		currency: currency,
	}
}

func (c *PricingCalculator) Currency() string {
	return c.currency
}

// Price validates every line, snapshots the referenced products and computes
// subtotal, tax and total. Line order follows the input.
func (c *PricingCalculator) Price(ctx context.Context, items []CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, apperr.Invalid(msgEmptyCart)
	}
	for _, item := range items {
		if !IsValidID(item.ProductID) {
			return nil, apperr.Invalid(msgInvalidProductID).WithField("productId", item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, apperr.Invalid(msgInvalidQuantity).WithField("productId", item.ProductID)
		}
	}

	products := make([]*models.Product, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			product, err := c.products.GetByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrProductNotFound) {
					return apperr.NotFoundErr(msgProductUnavailable).WithField("productId", item.ProductID)
				}
				return fmt.Errorf("failed to look up product %s: %w", item.ProductID, err)
			}
			if !product.IsActive {
				return apperr.UnavailableErr(msgProductUnavailable).WithField("productId", item.ProductID)
			}
			products[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Wrap(err)
	}

	subtotal := decimal.Zero
	lines := make([]models.OrderItem, len(items))
	for i, item := range items {
		p := products[i]
		price := decimal.NewFromFloat(p.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines[i] = models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Image:     p.PrimaryImage(),
		}
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(c.taxRate).Round(2)
	total := subtotal.Add(tax).Round(2)

	return &Quote{
		Items:       lines,
		Subtotal:    subtotal.InexactFloat64(),
		Tax:         tax.InexactFloat64(),
		TotalAmount: total.InexactFloat64(),
		Currency:    c.currency,
	}, nil
}
