package order

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidwanic/backend/core"
)

// order statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const (
	TypeMagazine   = "magazine"
	PaymentPending = "pending"
)

type (
	// Order is a school's durable, price-verified order. totalAmount is the
	// sum of its item totals; items are immutable after creation.
	Order struct {
		ID              string      `json:"id"`
		OrderNumber     string      `json:"order_number"`
		SchoolID        string      `json:"school_id"`
		TotalAmount     int         `json:"total_amount"`
		Status          string      `json:"status"`
		OrderType       string      `json:"order_type"`
		DeliveryAddress string      `json:"delivery_address"`
		DeliveryContact string      `json:"delivery_contact"`
		PaymentStatus   string      `json:"payment_status"`
		CreatedAt       time.Time   `json:"created_at"` // UTC
		UpdatedAt       time.Time   `json:"updated_at"` // UTC
		Items           []OrderItem `json:"items"`
	}

	OrderItem struct {
		ID            string `json:"id"`
		OrderID       string `json:"order_id"`
		MagazineID    string `json:"magazine_id"`
		MagazineTitle string `json:"magazine_title"`
		Quantity      int    `json:"quantity"`
		UnitPrice     int    `json:"unit_price"` // catalog price at submission time
		TotalPrice    int    `json:"total_price"`
	}
)

// NewOrder is a client-submitted cart.
type NewOrder struct {
	Items           []NewOrderItem `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string         `json:"delivery_address" validate:"required"`
	DeliveryContact string         `json:"delivery_contact" validate:"required"`
}

type NewOrderItem struct {
	MagazineID string `json:"magazine_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice  int    `json:"unit_price" validate:"required,gt=0"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	no.DeliveryAddress = core.CleanString(no.DeliveryAddress)
	no.DeliveryContact = core.CleanString(no.DeliveryContact)
	return validate.Struct(no)
}
