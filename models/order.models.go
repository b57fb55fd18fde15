package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
)

// CustomerDetails is the contact information collected at checkout
type CustomerDetails struct {
	FirstName string `bson:"first_name" json:"first_name" validate:"min=2"`
	LastName  string `bson:"last_name" json:"last_name" validate:"min=2"`
	Phone     string `bson:"phone" json:"phone" validate:"min=10"`
	Location  string `bson:"location,omitempty" json:"location,omitempty"`
}

// Order is the order header record
type Order struct {
	ID         string      `bson:"_id,omitempty" json:"id"`
	FirstName  string      `bson:"first_name" json:"first_name"`
	LastName   string      `bson:"last_name" json:"last_name"`
	Phone      string      `bson:"phone" json:"phone"`
	Location   string      `bson:"location,omitempty" json:"location,omitempty"`
	TotalPrice float64     `bson:"total_price" json:"total_price"`
	Status     string      `bson:"status" json:"status"` // "pending", "processing", "delivered"
	CreatedAt  time.Time   `bson:"created_at" json:"created_at"`
	Items      []OrderItem `bson:"-" json:"order_items,omitempty"`
}

// OrderItem is one product line attached to an order header
type OrderItem struct {
	ID          string  `bson:"_id,omitempty" json:"id"`
	OrderID     string  `bson:"order_id" json:"order_id"`
	ProductID   string  `bson:"product_id" json:"product_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
	TotalPrice  float64 `bson:"total_price" json:"total_price"`
}

// SubmissionLine is a product line frozen at checkout time
type SubmissionLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderSubmission is the immutable order snapshot handed to storage
type OrderSubmission struct {
	OrderID   string           `json:"order_id"`
	Customer  CustomerDetails  `json:"customer"`
	Total     decimal.Decimal  `json:"total"`
	Lines     []SubmissionLine `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

// Header builds the order header record for the submission
func (s *OrderSubmission) Header() *Order {
	return &Order{
		ID:         s.OrderID,
		FirstName:  s.Customer.FirstName,
		LastName:   s.Customer.LastName,
		Phone:      s.Customer.Phone,
		Location:   s.Customer.Location,
		TotalPrice: s.Total.InexactFloat64(),
		Status:     StatusPending,
		CreatedAt:  s.CreatedAt,
	}
}

// OrderItems builds one order line record per submission line
func (s *OrderSubmission) OrderItems() []OrderItem {
	items := make([]OrderItem, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, OrderItem{
			OrderID:     s.OrderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.InexactFloat64(),
			TotalPrice:  line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).InexactFloat64(),
		})
	}
	return items
}
