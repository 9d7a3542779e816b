package domain

import (
	"encoding/json"
)

// Envelope is the response written back for every request line.
type Envelope struct {
	Success       bool
	Test          bool
	FraudReview   bool
	Message       string
	Authorization string
	Passthrough   map[string]string

	// Billing and shipping addresses, already prefixed (bill_city, ship_zip, ...).
	Addresses map[string]string

	CardDisplay  string
	CardExpMonth string
	CardExpYear  string
	CardType     string
	CardStore    string

	Money        *int64
	CurrencyCode string
	SessionData  json.RawMessage

	SupportedActions []Operation

	Gateway   string
	Action    string
	RequestID json.RawMessage
}

// MarshalJSON writes the envelope as a flat object. Optional fields are omitted when unset;
// gateway, action and request_id are always present.
func (e Envelope) MarshalJSON() ([]byte, error) {
	passthrough := e.Passthrough
	if passthrough == nil {
		passthrough = map[string]string{}
	}

	out := map[string]interface{}{
		"success":       e.Success,
		"test":          e.Test,
		"fraud_review":  e.FraudReview,
		"message":       e.Message,
		"authorization": e.Authorization,
		"passthrough":   passthrough,
		"gateway":       e.Gateway,
		"action":        e.Action,
		"request_id":    requestID(e.RequestID),
	}

	for k, v := range e.Addresses {
		out[k] = v
	}

	setIfPresent(out, "cc_display", e.CardDisplay)
	setIfPresent(out, "cc_exp_month", e.CardExpMonth)
	setIfPresent(out, "cc_exp_year", e.CardExpYear)
	setIfPresent(out, "cc_type", e.CardType)
	setIfPresent(out, "card_store", e.CardStore)
	setIfPresent(out, "currency_code", e.CurrencyCode)

	if e.Money != nil {
		out["money"] = *e.Money
	}
	if len(e.SessionData) > 0 && string(e.SessionData) != "null" {
		out["session_data"] = e.SessionData
	}
	if e.SupportedActions != nil {
		out["supported_actions"] = e.SupportedActions
	}

	return json.Marshal(out)
}

func setIfPresent(out map[string]interface{}, key, value string) {
	if value != "" {
		out[key] = value
	}
}

func requestID(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
