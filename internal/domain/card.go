package domain

import (
	"regexp"
	"strings"
)

// CreditCard is the card a caller submitted through the form fields.
// Only presence is checked; number validity is the backend's concern.
type CreditCard struct {
	Number            string
	Month             string
	Year              string
	FirstName         string
	LastName          string
	VerificationValue string
}

// creditCardFields are the form fields a card is built from, all required.
var creditCardFields = []string{"cc_number", "cc_exp_month", "cc_exp_year", "bill_first_name", "bill_last_name", "cc_ccv"}

var whitespace = regexp.MustCompile(`\s+`)

// brandPatterns is checked in order; the first match names the brand.
var brandPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{"visa", regexp.MustCompile(`^4\d{12}(\d{3})?(\d{3})?$`)},
	{"master", regexp.MustCompile(`^(5[1-5]\d{4}|677189|222[1-9]\d{2}|22[3-9]\d{3}|2[3-6]\d{4}|27[01]\d{3}|2720\d{2})\d{10}$`)},
	{"discover", regexp.MustCompile(`^(6011|65\d{2}|64[4-9]\d)\d{12,15}$|^(62\d{14,17})$`)},
	{"american_express", regexp.MustCompile(`^3[47]\d{13}$`)},
	{"diners_club", regexp.MustCompile(`^3(0[0-5]|[68]\d)\d{11}$`)},
	{"jcb", regexp.MustCompile(`^35(28|29|[3-8]\d)\d{12}$`)},
	{"bogus", regexp.MustCompile(`^\d$`)},
}

// NewCreditCard builds a card from form data, failing on the first absent field.
func NewCreditCard(data FormData) (*CreditCard, error) {
	for _, field := range creditCardFields {
		if !data.Has(field) {
			return nil, MissingParameter(field)
		}
	}

	return &CreditCard{
		Number:            whitespace.ReplaceAllString(data["cc_number"], ""),
		Month:             data["cc_exp_month"],
		Year:              data["cc_exp_year"],
		FirstName:         data["bill_first_name"],
		LastName:          data["bill_last_name"],
		VerificationValue: data["cc_ccv"],
	}, nil
}

// LastDigits returns up to the last four digits of the number.
func (c *CreditCard) LastDigits() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// DisplayNumber returns the masked number safe to echo back to callers.
func (c *CreditCard) DisplayNumber() string {
	return "XXXX-XXXX-XXXX-" + c.LastDigits()
}

// Brand detects the card brand from the number, or returns "" when unknown.
func (c *CreditCard) Brand() string {
	for _, bp := range brandPatterns {
		if bp.pattern.MatchString(c.Number) {
			return bp.brand
		}
	}
	return ""
}

// Name returns the cardholder name.
func (c *CreditCard) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ExpiryMonth returns the two-digit expiry month.
func (c *CreditCard) ExpiryMonth() string {
	if len(c.Month) == 1 {
		return "0" + c.Month
	}
	return c.Month
}

// ExpiryYear returns the four-digit expiry year.
func (c *CreditCard) ExpiryYear() string {
	if len(c.Year) == 2 {
		return "20" + c.Year
	}
	return c.Year
}

// PaymentSource is either a freshly submitted card or a reference to a stored one.
type PaymentSource struct {
	Card      *CreditCard
	Reference string
}

// IsReference reports whether the source points at a stored card.
func (p PaymentSource) IsReference() bool {
	return p.Card == nil
}

// Identifier returns the value backends match on: the reference, or the card number.
func (p PaymentSource) Identifier() string {
	if p.Card != nil {
		return p.Card.Number
	}
	return p.Reference
}
