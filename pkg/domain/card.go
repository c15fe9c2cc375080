package domain

import (
	"strconv"
	"strings"
)

const (
	cardNumberDigits = 16
	expiryDigits     = 4
)

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func limit(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// FormatCardNumber masks raw input as up to 16 digits in groups of 4.
func FormatCardNumber(s string) string {
	d := limit(DigitsOnly(s), cardNumberDigits)
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// FormatExpiry masks raw input as MM/YY.
func FormatExpiry(s string) string {
	d := limit(DigitsOnly(s), expiryDigits)
	if len(d) > 2 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// FormatCVV keeps at most 4 digits.
func FormatCVV(s string) string {
	return limit(DigitsOnly(s), 4)
}

// Card is the credit-card instrument as typed in the payment form.
type Card struct {
	Number string `json:"cardNumber"`
	Name   string `json:"cardName"`
	Expiry string `json:"expiryDate"`
	CVV    string `json:"cvv"`
}

func isDigits(s string) bool {
	return s != "" && DigitsOnly(s) == s
}

// Validate checks the four mandatory fields. Spaces in the number are
// display grouping and are ignored.
func (c Card) Validate() error {
	fe := FieldErrors{}
	if c.Number == "" || strings.TrimSpace(c.Name) == "" || c.Expiry == "" || c.CVV == "" {
		fe.Add("card", "complete every card field")
	}
	if n := strings.ReplaceAll(c.Number, " ", ""); c.Number != "" && (!isDigits(n) || len(n) != cardNumberDigits) {
		fe.Add("cardNumber", "card number must have 16 digits")
	}
	if c.Expiry != "" {
		if _, _, ok := c.expiry(); !ok {
			fe.Add("expiryDate", "expiry date must use the MM/YY format")
		}
	}
	if c.CVV != "" && (!isDigits(c.CVV) || len(c.CVV) < 3 || len(c.CVV) > 4) {
		fe.Add("cvv", "security code must have 3 or 4 digits")
	}
	return fe.Err()
}

func (c Card) expiry() (month, year int, ok bool) {
	parts := strings.Split(c.Expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(parts[0])
	year, _ = strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return month, 2000 + year, true
}

// ExpiryMonthYear returns the expiry as month and four-digit year.
func (c Card) ExpiryMonthYear() (int, int) {
	m, y, _ := c.expiry()
	return m, y
}

// Digits is the card number without display spaces.
func (c Card) Digits() string { return strings.ReplaceAll(c.Number, " ", "") }

// Last4 is safe to persist and display.
func (c Card) Last4() string {
	d := c.Digits()
	if len(d) < 4 {
		return d
	}
	return d[len(d)-4:]
}
