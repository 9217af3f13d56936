package ledgerdelivery

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidAmount checks that the bound field is a positive decimal with at
// most 2 fractional digits.
var ValidAmount validator.Func = func(fieldLevel validator.FieldLevel) bool {
	amount, ok := fieldLevel.Field().Interface().(string)
	if !ok {
		return false
	}

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return false
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return false
	}

	return amountDecimal.Exponent() >= -2
}
