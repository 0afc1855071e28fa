package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed},
}

// ParseOrderStatus returns the status matching s, or false if s is not a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed:
		return OrderStatus(s), true
	}
	return "", false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// CanTransitionTo reports whether s -> next is in the transition table.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a snapshot of a catalog product taken when the order was created.
type OrderItem struct {
	ID        uint    `json:"-" bson:"-" gorm:"primaryKey"`
	OrderID   string  `json:"-" bson:"-" gorm:"type:varchar(36);index"`
	ProductID string  `json:"productId" bson:"productId" gorm:"type:varchar(36);not null"`
	Name      string  `json:"name" bson:"name" gorm:"not null"`
	Price     float64 `json:"price" bson:"price"` // Unit price at the time of order
	Quantity  int     `json:"quantity" bson:"quantity"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
}

// Customer is the contact snapshot captured at checkout.
type Customer struct {
	Name    string `json:"name" bson:"name" validate:"omitempty,max=180"`
	Email   string `json:"email" bson:"email" validate:"omitempty,email"`
	Address string `json:"address" bson:"address" validate:"omitempty,max=500"`
}

// Order represents one checkout attempt and its payment outcome.
type Order struct {
	ID              string      `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Items           []OrderItem `json:"items" bson:"items" gorm:"foreignKey:OrderID"`
	Subtotal        float64     `json:"subtotal" bson:"subtotal"`
	Tax             float64     `json:"tax" bson:"tax"`
	TotalAmount     float64     `json:"totalAmount" bson:"totalAmount"`
	Currency        string      `json:"currency" bson:"currency" gorm:"type:varchar(3)"`
	Status          OrderStatus `json:"status" bson:"status" gorm:"type:varchar(16);index"`
	PaymentProvider string      `json:"paymentProvider" bson:"paymentProvider"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty" bson:"paymentIntentId" gorm:"index"`
	CustomerEmail   string      `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	Customer        Customer    `json:"customer" bson:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Version         int         `json:"-" bson:"version"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// HasIntent reports whether a payment intent has been attached.
func (o *Order) HasIntent() bool {
	return o.PaymentIntentID != ""
}

// IsOrphan reports whether the order was persisted but never got a payment intent.
func (o *Order) IsOrphan() bool {
	return o.Status == OrderStatusPending && !o.HasIntent()
}
