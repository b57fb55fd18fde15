// Package repository is the storage layer for the catalog, orders, accounts
// and expenses.
package repository

import (
	"context"
	"errors"

	"farm-store/models"
)

var (
	// ErrNotFound is returned when the addressed document does not exist
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("repository: duplicate")
)

// ProductFilter narrows ListProducts. Zero values do not filter.
type ProductFilter struct {
	IDs      []string
	Category string
	Search   string // case-insensitive match on name
	InStock  *bool
}

// OrderFilter narrows ListOrders. Zero values do not filter.
type OrderFilter struct {
	Status string
	Search string // case-insensitive match on first name
}

// ProductRepository reads and maintains the catalog
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (string, error)
	UpdateProductStock(ctx context.Context, id string, price float64, inStock bool) error
	DeleteProduct(ctx context.Context, id string) error
}

// OrderWriter performs the two writes of a checkout. The writes are separate:
// a failed InsertOrderItems leaves the header in place.
type OrderWriter interface {
	InsertOrder(ctx context.Context, order *models.Order) (string, error)
	InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error
}

// OrderRepository is the full order store used by the dashboard
type OrderRepository interface {
	OrderWriter
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) error
	DeleteOrderItem(ctx context.Context, itemID string) error
}

// ProfileRepository stores accounts
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) (string, error)
	FindProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

// ExpenseRepository stores farm expenses
type ExpenseRepository interface {
	InsertExpense(ctx context.Context, expense *models.Expense) (string, error)
	ListExpenses(ctx context.Context, from, to string) ([]models.Expense, error)
}
