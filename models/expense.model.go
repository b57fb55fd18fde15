package models

import "time"

// Expense is a farm running cost recorded from the dashboard
type Expense struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Category    string    `bson:"category" json:"category" validate:"required"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Amount      float64   `bson:"amount" json:"amount"`
	ExpenseDate string    `bson:"expense_date" json:"expense_date" validate:"required,datetime=2006-01-02"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
