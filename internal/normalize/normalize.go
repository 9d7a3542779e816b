// Package normalize builds the response envelope for one request cycle.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/kevin07696/payment-bridge/internal/domain"
)

// Fields are the request-derived values echoed back on the envelope.
// Whatever was gathered before a failure is still echoed.
type Fields struct {
	Passthrough  map[string]string
	Options      *domain.Options
	Money        *int64
	CurrencyCode string
	SessionData  json.RawMessage
	Source       *domain.PaymentSource
}

// Passthrough copies the allow-listed data fields. Names starting with cc_ are never copied.
func Passthrough(data domain.FormData, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, "cc_") {
			continue
		}
		if value, ok := data[name]; ok {
			out[name] = value
		}
	}
	return out
}

// Success builds the envelope for a result the backend returned.
func Success(f Fields, result *domain.Result) domain.Envelope {
	env := echo(f)
	if result != nil {
		env.Success = result.Success
		env.Test = result.Test
		env.FraudReview = result.FraudReview
		env.Message = result.Message
		env.Authorization = result.Authorization
	}
	return env
}

// Failure builds the envelope for an error caught during the cycle.
func Failure(f Fields, err error) domain.Envelope {
	env := echo(f)
	env.Success = false
	env.Message = domain.UserMessage(err)
	return env
}

// Rejection builds the envelope for a request refused before any field was gathered.
func Rejection(message string) domain.Envelope {
	return domain.Envelope{Message: message}
}

// Attach stamps the routing fields every envelope carries.
func Attach(env *domain.Envelope, gateway, action string, requestID json.RawMessage) {
	env.Gateway = gateway
	env.Action = action
	env.RequestID = requestID
}

func echo(f Fields) domain.Envelope {
	env := domain.Envelope{
		Passthrough:  f.Passthrough,
		Money:        f.Money,
		CurrencyCode: f.CurrencyCode,
		SessionData:  f.SessionData,
	}

	if f.Options != nil {
		addresses := make(map[string]string)
		for k, v := range f.Options.BillingAddress.Flatten("bill_") {
			addresses[k] = v
		}
		for k, v := range f.Options.ShippingAddress.Flatten("ship_") {
			addresses[k] = v
		}
		if len(addresses) > 0 {
			env.Addresses = addresses
		}
	}

	if f.Source != nil {
		if card := f.Source.Card; card != nil {
			env.CardDisplay = card.DisplayNumber()
			env.CardExpMonth = card.Month
			env.CardExpYear = card.Year
			env.CardType = card.Brand()
		} else {
			env.CardStore = f.Source.Reference
		}
	}

	return env
}
