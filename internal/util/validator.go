package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxScale is the number of fractional FC digits the store keeps.
const MaxScale = 8

var maxAmount = decimal.New(1, 12)

// ValidateAmount checks a monetary input: positive, below 10^12 and with at
// most MaxScale fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be a positive number")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	if -amount.Exponent() > MaxScale && !amount.Equal(amount.Truncate(MaxScale)) {
		return fmt.Errorf("amount has more than %d decimal places", MaxScale)
	}
	return nil
}

// ValidateID checks an entity id taken from a request.
func ValidateID(field, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(id) > 64 {
		return fmt.Errorf("%s too long, max 64 characters", field)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD date.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}
