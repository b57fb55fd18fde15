package utils

import (
	"testing"

	"farm-store/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	fields := ValidateStruct(models.CustomerDetails{FirstName: "J", LastName: "Doe", Phone: "123"}, nil)

	assert.Equal(t, map[string]string{
		"first_name": "Must be at least 2 characters",
		"phone":      "Must be at least 10 characters",
	}, fields)
}

func TestValidateStruct_MessageOverride(t *testing.T) {
	fields := ValidateStruct(models.CustomerDetails{FirstName: "Jane", LastName: "D", Phone: "0712345678"},
		map[string]string{"last_name": "Required"})

	assert.Equal(t, map[string]string{"last_name": "Required"}, fields)
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.Nil(t, ValidateStruct(models.CustomerDetails{FirstName: "Jane", LastName: "Doe", Phone: "0712345678"}, nil))
}

func TestValidateStruct_Product(t *testing.T) {
	fields := ValidateStruct(models.Product{
		Name: "Eggs", Description: "Fresh tray", Price: -1, Unit: "tray", Image: "eggs.jpg", Category: "fish",
	}, nil)

	assert.Equal(t, "Must be 0 or more", fields["price"])
	assert.Equal(t, "Must be one of: chicken, eggs, plants", fields["category"])
	assert.Len(t, fields, 2)
}

func TestValidateStruct_ExpenseDate(t *testing.T) {
	fields := ValidateStruct(models.Expense{Category: "feed", ExpenseDate: "14/10/2026"}, nil)
	assert.Equal(t, map[string]string{"expense_date": "Invalid date format"}, fields)

	assert.Nil(t, ValidateStruct(models.Expense{Category: "feed", ExpenseDate: "2026-10-14"}, nil))
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("delivered", "oneof=processing delivered"))
	assert.Error(t, ValidateVar("pending", "oneof=processing delivered"))
}
