package helpers

import (
	"errors"
	"regexp"
	"strings"
)

var (
	countryCodePrefix = regexp.MustCompile(`^\+?91`)
	tenDigits         = regexp.MustCompile(`^\d{10}$`)
)

var ErrInvalidMobile = errors.New("invalid mobile number. It must be a 10-digit Indian mobile number")

// NormalizeMobile strips a leading +91/91 country code and requires exactly
// ten digits to remain. Ten digit input is returned as is, so numbers that
// themselves start with 91 survive.
func NormalizeMobile(mobile string) (string, error) {
	value := strings.TrimSpace(mobile)
	if tenDigits.MatchString(value) {
		return value, nil
	}
	value = countryCodePrefix.ReplaceAllString(value, "")
	if !tenDigits.MatchString(value) {
		return "", ErrInvalidMobile
	}
	return value, nil
}

// InternationalMobile formats a canonical number for SMS delivery.
func InternationalMobile(mobile string) string {
	return "+91" + mobile
}
