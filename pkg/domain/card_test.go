package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCardNumber(t *testing.T) {
	assert.Equal(t, "1234 5678 9012 3456", FormatCardNumber("1234567890123456"))
	assert.Equal(t, "1234 5678 9012 3456", FormatCardNumber("1234-5678-9012-3456-999"))
	assert.Equal(t, "1234 5", FormatCardNumber("12345"))
	assert.Equal(t, "", FormatCardNumber("abcd"))
}

func TestFormatExpiryAndCVV(t *testing.T) {
	assert.Equal(t, "12", FormatExpiry("12"))
	assert.Equal(t, "12/2", FormatExpiry("122"))
	assert.Equal(t, "12/28", FormatExpiry("12/2899"))
	assert.Equal(t, "1234", FormatCVV("12a345"))
}

func validCard() Card {
	return Card{
		Number: FormatCardNumber("1234567890123456"),
		Name:   "Juan Pérez",
		Expiry: "08/29",
		CVV:    "123",
	}
}

func TestCardValidate_Complete(t *testing.T) {
	c := validCard()
	require.NoError(t, c.Validate())
	m, y := c.ExpiryMonthYear()
	assert.Equal(t, 8, m)
	assert.Equal(t, 2029, y)
	assert.Equal(t, "3456", c.Last4())
}

func TestCardValidate_Rejects(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Card)
		field  string
	}{
		"15 digits":       {func(c *Card) { c.Number = FormatCardNumber("123456789012345") }, "cardNumber"},
		"letters":         {func(c *Card) { c.Number = "1234 5678 9012 345x" }, "cardNumber"},
		"missing name":    {func(c *Card) { c.Name = " " }, "card"},
		"short expiry":    {func(c *Card) { c.Expiry = "08/2" }, "expiryDate"},
		"month 13":        {func(c *Card) { c.Expiry = "13/29" }, "expiryDate"},
		"short cvv":       {func(c *Card) { c.CVV = "12" }, "cvv"},
		"long cvv":        {func(c *Card) { c.CVV = "12345" }, "cvv"},
		"missing all cvv": {func(c *Card) { c.CVV = "" }, "card"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := validCard()
			tc.mutate(&c)
			var fe FieldErrors
			require.ErrorAs(t, c.Validate(), &fe)
			assert.Contains(t, fe, tc.field)
		})
	}
}

func TestCardValidate_FourDigitCVV(t *testing.T) {
	c := validCard()
	c.CVV = "1234"
	assert.NoError(t, c.Validate())
}
