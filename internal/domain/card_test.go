package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardData() FormData {
	return FormData{
		"cc_number":       "4111 1111 1111 1111",
		"cc_exp_month":    "11",
		"cc_exp_year":     "2030",
		"cc_ccv":          "111",
		"bill_first_name": "John",
		"bill_last_name":  "Smith",
	}
}

func TestNewCreditCard(t *testing.T) {
	card, err := NewCreditCard(cardData())

	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", card.Number)
	assert.Equal(t, "XXXX-XXXX-XXXX-1111", card.DisplayNumber())
	assert.Equal(t, "visa", card.Brand())
	assert.Equal(t, "John Smith", card.Name())
	assert.Equal(t, "11", card.ExpiryMonth())
}

func TestNewCreditCard_MissingField(t *testing.T) {
	for _, field := range []string{"cc_number", "cc_exp_month", "cc_exp_year", "bill_first_name", "bill_last_name", "cc_ccv"} {
		t.Run(field, func(t *testing.T) {
			data := cardData()
			delete(data, field)

			_, err := NewCreditCard(data)

			require.Error(t, err)
			assert.Equal(t, "Missing required parameter: "+field, UserMessage(err))
		})
	}
}

func TestCreditCard_Brand(t *testing.T) {
	tests := []struct {
		number string
		brand  string
	}{
		{"4111111111111111", "visa"},
		{"5555555555554444", "master"},
		{"378282246310005", "american_express"},
		{"6011111111111117", "discover"},
		{"30569309025904", "diners_club"},
		{"3530111333300000", "jcb"},
		{"1", "bogus"},
		{"1234", ""},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			card := &CreditCard{Number: tt.number}
			assert.Equal(t, tt.brand, card.Brand())
		})
	}
}

func TestCreditCard_ShortNumberDisplay(t *testing.T) {
	card := &CreditCard{Number: "1", Month: "3", Year: "30"}

	assert.Equal(t, "XXXX-XXXX-XXXX-1", card.DisplayNumber())
	assert.Equal(t, "03", card.ExpiryMonth())
	assert.Equal(t, "2030", card.ExpiryYear())
}

func TestPaymentSource_Identifier(t *testing.T) {
	card := PaymentSource{Card: &CreditCard{Number: "2"}}
	ref := PaymentSource{Reference: ";123;456"}

	assert.False(t, card.IsReference())
	assert.Equal(t, "2", card.Identifier())
	assert.True(t, ref.IsReference())
	assert.Equal(t, ";123;456", ref.Identifier())
}

func TestBuildOptions(t *testing.T) {
	data := FormData{
		"bill_city":     "San Diego",
		"bill_address2": "",
		"ship_zip":      "92101",
		"note":          "x",
	}
	secure := &SecureData{Options: map[string]interface{}{"order_id": "A-1", "tax": float64(12), "recurring": true}}

	opts := BuildOptions(data, secure)

	assert.Equal(t, Address{"city": "San Diego", "address2": ""}, opts.BillingAddress)
	assert.Equal(t, Address{"zip": "92101"}, opts.ShippingAddress)
	assert.Equal(t, "A-1", opts.String("order_id"))
	assert.Equal(t, "12", opts.String("tax"))
	assert.Equal(t, "true", opts.String("recurring"))
	assert.Equal(t, "", opts.String("missing"))

	secure.Options["order_id"] = "changed"
	assert.Equal(t, "A-1", opts.String("order_id"))
}

func TestParseAddress_NoneFound(t *testing.T) {
	assert.Nil(t, ParseAddress(FormData{"note": "x"}, "ship_"))
	assert.Empty(t, Address(nil).Flatten("ship_"))
}
