package utils

import (
	"errors"
	"regexp"
)

// Kenyan mobile numbers: Safaricom/Airtel prefixes 7xx/1xx, with or without
// the 254/+254/0 prefix.
var kenyanPhoneRe = regexp.MustCompile(`^(?:254|\+254|0)?([17]\d{8})$`)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone validates a Kenyan mobile number and returns it in the
// 254XXXXXXXXX form Daraja expects. Rejected numbers never reach the gateway.
func NormalizePhone(phone string) (string, error) {
	m := kenyanPhoneRe.FindStringSubmatch(phone)
	if m == nil {
		return "", ErrInvalidPhone
	}
	return "254" + m[1], nil
}
