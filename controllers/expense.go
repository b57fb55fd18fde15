package controllers

import (
	"context"
	"net/http"

	"farm-store/models"
	"farm-store/repository"
	"farm-store/utils"

	"go.uber.org/zap"
)

// ExpenseController records and lists farm expenses (Admin only)
type ExpenseController struct {
	Expenses repository.ExpenseRepository
	Logger   *zap.Logger
}

// NewExpenseController creates a new ExpenseController
func NewExpenseController(expenses repository.ExpenseRepository, logger *zap.Logger) *ExpenseController {
	return &ExpenseController{Expenses: expenses, Logger: logger}
}

var expenseMessages = map[string]string{
	"category":     "Category is required",
	"expense_date": "Date must be YYYY-MM-DD",
}

// CreateExpense records an expense
func (ec *ExpenseController) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var expense models.Expense
	if err := decode(r, &expense); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if fields := utils.ValidateStruct(expense, expenseMessages); fields != nil {
		validationFailed(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := ec.Expenses.InsertExpense(ctx, &expense)
	if err != nil {
		storageError(w, ec.Logger, err, "Error saving expense")
		return
	}
	expense.ID = id
	writeJSON(w, http.StatusCreated, expense)
}

// GetExpenses lists expenses, optionally between from and to inclusive
func (ec *ExpenseController) GetExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	fields := map[string]string{}
	for name, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if err := utils.ValidateVar(v, "datetime=2006-01-02"); err != nil {
			fields[name] = "Date must be YYYY-MM-DD"
		}
	}
	if len(fields) > 0 {
		validationFailed(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	expenses, err := ec.Expenses.ListExpenses(ctx, from, to)
	if err != nil {
		storageError(w, ec.Logger, err, "Error fetching expenses")
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}
