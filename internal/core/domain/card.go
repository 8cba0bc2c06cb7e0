package domain

import (
	"regexp"
	"strconv"
	"strings"
)

type CardBrand string

const (
	Visa       CardBrand = "VISA"
	Mastercard CardBrand = "MASTERCARD"
	Unknown    CardBrand = "UNKNOWN"
)

var (
	// Visa: starts with 4, length 13 or 16.
	visaRegex = regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?$`)
	// Mastercard: starts with 51-55, length 16.
	masterRegex = regexp.MustCompile(`^5[1-5][0-9]{14}$`)
)

// ValidateCard checks that a funding card number is well formed and one of
// the accepted brands. Amex, Discover and the rest are rejected.
func ValidateCard(number string) (bool, CardBrand) {
	cleanNum := strings.ReplaceAll(number, " ", "")
	cleanNum = strings.ReplaceAll(cleanNum, "-", "")

	if !passesLuhn(cleanNum) {
		return false, Unknown
	}

	if visaRegex.MatchString(cleanNum) {
		return true, Visa
	}
	if masterRegex.MatchString(cleanNum) {
		return true, Mastercard
	}
	return false, Unknown
}

// passesLuhn implements the standard Mod 10 check.
func passesLuhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(string(number[i]))
		if err != nil {
			return false
		}
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
