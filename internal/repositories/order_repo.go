package repositories

import (
	"context"
	"time"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// AttachIntent and UpdateStatus are compare-and-swap writes: they only apply
// when the stored order is still in the expected state and fail with
// ErrInvalidTransition otherwise. Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// AttachIntent sets the payment intent of a PENDING order that has none yet.
	AttachIntent(ctx context.Context, id, intentID, provider string) error
	// UpdateStatus moves an order from -> to if the transition table allows it.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	// ListOrphans returns PENDING orders without an intent created before the cutoff, oldest first.
	ListOrphans(ctx context.Context, createdBefore time.Time, limit int) ([]models.Order, error)
}
