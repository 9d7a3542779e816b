package domain

import (
	"fmt"
	"strconv"
)

// addressFields are the suffixes shared by the bill_ and ship_ form fields.
var addressFields = []string{"first_name", "last_name", "address1", "address2", "city", "state", "country", "zip", "phone", "email"}

// Address is a flat billing or shipping address keyed by field suffix (city, zip, ...).
type Address map[string]string

// ParseAddress collects every form field carrying the given prefix.
// It returns nil when none is present.
func ParseAddress(data FormData, prefix string) Address {
	var addr Address
	for _, field := range addressFields {
		value, ok := data[prefix+field]
		if !ok {
			continue
		}
		if addr == nil {
			addr = make(Address, len(addressFields))
		}
		addr[field] = value
	}
	return addr
}

// Flatten renders the address back into prefixed form fields.
func (a Address) Flatten(prefix string) map[string]string {
	out := make(map[string]string, len(a))
	for field, value := range a {
		out[prefix+field] = value
	}
	return out
}

// Options is the options value handed to a backend operation.
type Options struct {
	Values          map[string]interface{}
	BillingAddress  Address
	ShippingAddress Address
}

// BuildOptions merges caller options with the addresses found in form data.
func BuildOptions(data FormData, secure *SecureData) Options {
	values := make(map[string]interface{})
	if secure != nil {
		for k, v := range secure.Options {
			values[k] = v
		}
	}
	return Options{
		Values:          values,
		BillingAddress:  ParseAddress(data, "bill_"),
		ShippingAddress: ParseAddress(data, "ship_"),
	}
}

// String returns an option value rendered as a string, or "" when absent.
func (o Options) String(key string) string {
	v, ok := o.Values[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
