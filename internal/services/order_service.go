package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgInvalidOrderID      = "Valid orderId is required."
	msgInvalidOrderPath    = "Invalid order id."
	msgOrderNotFound       = "Order not found."
	msgMissingIntent       = "Order is missing payment intent."
	msgNotRepairable       = "Order is not awaiting a payment intent."
	msgNonPositiveTotal    = "Order total must be greater than zero."
	msgPaymentInitFailed   = "Unable to initialize payment. Please retry."
	publishTimeout         = 5 * time.Second
	defaultOrphanBatchSize = 50
)

// CheckoutResult is returned to the client once an order has a payment intent.
type CheckoutResult struct {
	OrderID      string  `json:"orderId"`
	ClientSecret string  `json:"clientSecret"`
	TotalAmount  float64 `json:"totalAmount"`
	Currency     string  `json:"currency"`
}

// OrderService drives an order from checkout through payment confirmation.
type OrderService struct {
	orders    repositories.OrderRepository
	pricing   *PricingCalculator
	gateway   payments.Gateway
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(
	orders repositories.OrderRepository,
	pricing *PricingCalculator,
	gateway payments.Gateway,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orders:    orders,
		pricing:   pricing,
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CreateOrder prices the cart, persists a PENDING order and attaches a fresh
// payment intent. If the gateway step fails the order is kept without an
// intent and the returned error carries its id for ReissueIntent.
func (s *OrderService) CreateOrder(ctx context.Context, items []CartItem, customer models.Customer) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, apperr.Invalid(msgEmptyCart)
	}

	quote, err := s.pricing.Price(ctx, items)
	if err != nil {
		return nil, err
	}
	if quote.TotalAmount <= 0 {
		return nil, apperr.Invalid(msgNonPositiveTotal)
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		Items:           quote.Items,
		Subtotal:        quote.Subtotal,
		Tax:             quote.Tax,
		TotalAmount:     quote.TotalAmount,
		Currency:        quote.Currency,
		Status:          models.OrderStatusPending,
		PaymentProvider: s.gateway.Name(),
		CustomerEmail:   customer.Email,
		Customer:        customer,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to create order: %w", err))
	}
	s.metrics.ObserveOrder(models.OrderStatusPending.String())
	s.publish(ctx, events.OrderCreated, order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount))

	result, err := s.attachNewIntent(ctx, order)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmPayment reconciles a payment outcome into PAID or FAILED. Confirming
// an order that is already terminal returns it unchanged.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, paymentStatus string, payload map[string]any) (*models.Order, error) {
	if !IsValidID(orderID) {
		return nil, apperr.Invalid(msgInvalidOrderID)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.HasIntent() {
		return nil, apperr.InvalidStateErr(msgMissingIntent)
	}
	if order.Status.IsTerminal() {
		s.logger.Debug("confirmation replayed on settled order",
			zap.String("order_id", order.ID), zap.String("status", order.Status.String()))
		return order, nil
	}

	success := false
	confirmation, err := s.gateway.ConfirmIntent(ctx, order.PaymentIntentID, payments.ConfirmRequest{
		Status:  paymentStatus,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("payment confirmation failed, marking order failed",
			zap.String("order_id", order.ID), zap.Error(err))
	} else {
		success = confirmation.Success
	}

	next := models.OrderStatusFailed
	if success {
		next = models.OrderStatusPaid
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, next); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			// A concurrent confirmation settled the order first.
			return s.loadOrder(ctx, order.ID)
		}
		return nil, apperr.Wrap(err)
	}

	settled, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveOrder(settled.Status.String())
	s.publish(ctx, events.TypeForStatus(settled.Status), settled)

	s.logger.Info("order settled",
		zap.String("order_id", settled.ID),
		zap.String("status", settled.Status.String()))
	return settled, nil
}

// GetOrder returns the order with id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if !IsValidID(id) {
		return nil, apperr.Invalid(msgInvalidOrderPath)
	}
	return s.loadOrder(ctx, id)
}

// ReissueIntent attaches a payment intent to an order whose checkout stopped
// after the order was persisted.
func (s *OrderService) ReissueIntent(ctx context.Context, orderID string) (*CheckoutResult, error) {
	if !IsValidID(orderID) {
		return nil, apperr.Invalid(msgInvalidOrderID)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOrphan() {
		return nil, apperr.InvalidStateErr(msgNotRepairable)
	}
	return s.attachNewIntent(ctx, order)
}

// RecoverOrphans reissues intents for up to limit orphaned orders created
// before olderThan ago and returns how many were repaired.
func (s *OrderService) RecoverOrphans(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultOrphanBatchSize
	}
	orphans, err := s.orders.ListOrphans(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list orphaned orders: %w", err)
	}

	repaired := 0
	for i := range orphans {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.attachNewIntent(ctx, &orphans[i]); err != nil {
			s.logger.Warn("failed to repair orphaned order",
				zap.String("order_id", orphans[i].ID), zap.Error(err))
			continue
		}
		repaired++
	}
	return repaired, nil
}

// RunOrphanSweeper calls RecoverOrphans every interval until ctx is done.
func (s *OrderService) RunOrphanSweeper(ctx context.Context, interval, minAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := s.RecoverOrphans(ctx, minAge, defaultOrphanBatchSize)
			if err != nil {
				s.logger.Error("orphan sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("repaired orphaned orders", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// attachNewIntent issues an intent for order and records it with a
// compare-and-swap write. Failures leave the order as an orphan.
func (s *OrderService) attachNewIntent(ctx context.Context, order *models.Order) (*CheckoutResult, error) {
	intent, err := s.gateway.IssueIntent(ctx, payments.IntentRequest{
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Metadata: map[string]string{"orderId": order.ID},
	})
	if err != nil {
		s.logger.Error("failed to issue payment intent",
			zap.String("order_id", order.ID), zap.Error(err))
		return nil, apperr.GatewayErr(msgPaymentInitFailed, err).WithField("orderId", order.ID)
	}

	if err := s.orders.AttachIntent(ctx, order.ID, intent.ID, intent.Provider); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return nil, apperr.InvalidStateErr(msgNotRepairable)
		}
		s.logger.Error("failed to attach payment intent",
			zap.String("order_id", order.ID), zap.String("intent_id", intent.ID), zap.Error(err))
		return nil, apperr.GatewayErr(msgPaymentInitFailed, err).WithField("orderId", order.ID)
	}
	order.PaymentIntentID = intent.ID
	order.PaymentProvider = intent.Provider

	return &CheckoutResult{
		OrderID:      order.ID,
		ClientSecret: intent.ClientSecret,
		TotalAmount:  order.TotalAmount,
		Currency:     order.Currency,
	}, nil
}

func (s *OrderService) loadOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, apperr.NotFoundErr(msgOrderNotFound)
		}
		return nil, apperr.Wrap(err)
	}
	return order, nil
}

// publish sends an order event. Broker failures are logged and never fail the caller.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", eventType), zap.String("order_id", order.ID), zap.Error(err))
	}
}
