package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ParseAmountToCents accepts "150", "150.5" or "150,50" and returns the
// value in minor units. Rejects more than two decimal places.
func ParseAmountToCents(amount string) (int64, error) {
	value := strings.TrimSpace(amount)
	if value == "" {
		return 0, errors.New("amount is empty")
	}

	if strings.Contains(value, ",") && strings.Contains(value, ".") {
		return 0, errors.New("use a single decimal separator")
	}
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ",", ".")
	}

	if strings.Contains(value, ".") {
		parts := strings.Split(value, ".")
		if len(parts) != 2 {
			return 0, errors.New("invalid decimal format")
		}
		intPart, fracPart := parts[0], parts[1]
		if intPart == "" {
			intPart = "0"
		}
		if !isDigits(intPart) || !isDigits(fracPart) {
			return 0, errors.New("amount must contain only digits")
		}
		if len(fracPart) > 2 {
			return 0, errors.New("use at most 2 decimal places")
		}
		for len(fracPart) < 2 {
			fracPart += "0"
		}
		intVal, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, errors.New("invalid integer part")
		}
		fracVal, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, errors.New("invalid decimal part")
		}
		cents := intVal*100 + fracVal
		if cents <= 0 {
			return 0, errors.New("amount must be greater than zero")
		}
		return cents, nil
	}

	if !isDigits(value) {
		return 0, errors.New("amount must contain only digits")
	}
	units, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid amount")
	}
	if units <= 0 {
		return 0, errors.New("amount must be greater than zero")
	}
	return units * 100, nil
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
