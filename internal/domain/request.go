package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Request is a single canonical payment request read from the stream.
type Request struct {
	Gateway    string          `json:"gateway"`
	Action     string          `json:"action"`
	Data       FormData        `json:"data"`
	SecureData *SecureData     `json:"secure_data"`
	RequestID  json.RawMessage `json:"request_id"`
}

// SecureData carries the fields that originate from the caller's trust boundary.
type SecureData struct {
	Money         json.RawMessage        `json:"money"`
	LegacyAmount  json.RawMessage        `json:"amount"` // older callers send amount instead of money
	CurrencyCode  string                 `json:"currency_code"`
	Authorization string                 `json:"authorization"`
	Options       map[string]interface{} `json:"options"`
	Passthrough   []string               `json:"passthrough"`
	SessionData   json.RawMessage        `json:"session_data"`
	CardStore     string                 `json:"card_store"`
}

// FormData holds the non-sensitive form fields of a request.
// A nil FormData means the request carried no data object at all.
type FormData map[string]string

// UnmarshalJSON accepts scalar values of any JSON type and stores them as strings.
// Null values are dropped so that they read as absent.
func (f *FormData) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(FormData, len(raw))
	for key, value := range raw {
		s, ok, err := scalarString(value)
		if err != nil {
			return fmt.Errorf("data field %q: %w", key, err)
		}
		if ok {
			out[key] = s
		}
	}
	*f = out
	return nil
}

// Has reports whether the field is present.
func (f FormData) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// HasAmount reports whether the request carries a money value.
func (s *SecureData) HasAmount() bool {
	return isSet(s.money())
}

func (s *SecureData) money() json.RawMessage {
	if isSet(s.Money) {
		return s.Money
	}
	return s.LegacyAmount
}

func isSet(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Amount parses the money field as an integer number of minor currency units.
// It accepts a JSON number or a numeric string; fractional values are rejected.
func (s *SecureData) Amount() (int64, error) {
	if !s.HasAmount() {
		return 0, MissingParameter("money")
	}

	text, _, err := scalarString(s.money())
	if err != nil {
		return 0, InvalidParameter("money", err)
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return 0, InvalidParameter("money", err)
	}
	if !amount.IsInteger() {
		return 0, InvalidParameter("money", fmt.Errorf("%s is not a whole number of minor units", text))
	}
	if amount.IsNegative() {
		return 0, InvalidParameter("money", fmt.Errorf("%s is negative", text))
	}
	if amount.GreaterThan(maxAmount) {
		return 0, InvalidParameter("money", fmt.Errorf("%s is out of range", text))
	}
	return amount.IntPart(), nil
}

// scalarString renders a JSON scalar as a string. It returns ok=false for null.
func scalarString(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", false, err
		}
		return strconv.FormatBool(b), true, nil
	case '{', '[':
		return "", false, fmt.Errorf("expected a scalar value")
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false, err
		}
		return n.String(), true, nil
	}
}
