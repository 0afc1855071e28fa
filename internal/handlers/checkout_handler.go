package handlers

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const msgInvalidBody = "Invalid request body."

type createOrderRequest struct {
	Items    []services.CartItem `json:"items"`
	Customer models.Customer     `json:"customer"`
}

type confirmPaymentRequest struct {
	OrderID        string         `json:"orderId"`
	PaymentStatus  string         `json:"paymentStatus"`
	PaymentPayload map[string]any `json:"paymentPayload"`
}

type retryIntentRequest struct {
	OrderID string `json:"orderId"`
}

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.OrderService) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkout := router.Group("/checkout")
	checkout.Post("/create-order", h.HandleCreateOrder)
	checkout.Post("/confirm", h.HandleConfirmPayment)
	checkout.Post("/retry-intent", h.HandleRetryIntent)
}

// HandleCreateOrder prices the cart, stores a pending order and returns the payment client secret.
func (h *CheckoutHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid(msgInvalidBody)
	}
	if err := validateStruct(h.validate, req.Customer); err != nil {
		return err
	}

	result, err := h.service.CreateOrder(c.UserContext(), req.Items, req.Customer)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleConfirmPayment settles an order from the reported payment outcome.
func (h *CheckoutHandler) HandleConfirmPayment(c *fiber.Ctx) error {
	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid(msgInvalidBody)
	}

	order, err := h.service.ConfirmPayment(c.UserContext(), req.OrderID, req.PaymentStatus, req.PaymentPayload)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleRetryIntent issues a payment intent for an order left without one.
func (h *CheckoutHandler) HandleRetryIntent(c *fiber.Ctx) error {
	var req retryIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid(msgInvalidBody)
	}

	result, err := h.service.ReissueIntent(c.UserContext(), req.OrderID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
