// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"tripbudget/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the ledger's enumeration tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("expense_type", validateExpenseType)
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.Currency(fl.Field().String()).IsValid()
}

func validateCategoryType(fl validator.FieldLevel) bool {
	return models.CategoryType(fl.Field().String()).IsValid()
}

func validateExpenseType(fl validator.FieldLevel) bool {
	return models.ExpenseType(fl.Field().String()).IsValid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return models.PaymentMethod(fl.Field().String()).IsValid()
}
