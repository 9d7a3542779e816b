package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toMap(t *testing.T, env domain.Envelope) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestPassthrough_ExcludesCardFields(t *testing.T) {
	data := domain.FormData{"order": "42", "cc_number": "4111111111111111", "cc_ccv": "123", "note": "hi"}

	got := Passthrough(data, []string{"order", "cc_number", "cc_ccv", "missing", "note"})

	assert.Equal(t, map[string]string{"order": "42", "note": "hi"}, got)
}

func TestSuccess_CopiesResultAndEchoesCard(t *testing.T) {
	money := int64(1000)
	card := &domain.CreditCard{Number: "4111111111111111", Month: "12", Year: "2030"}
	opts := domain.Options{
		BillingAddress:  domain.Address{"city": "Springfield", "zip": "12345"},
		ShippingAddress: domain.Address{"city": "Shelbyville"},
	}

	env := Success(Fields{
		Passthrough:  map[string]string{"order": "42"},
		Options:      &opts,
		Money:        &money,
		CurrencyCode: "USD",
		SessionData:  json.RawMessage(`{"k":"v"}`),
		Source:       &domain.PaymentSource{Card: card},
	}, &domain.Result{Success: true, Test: true, Message: "ok", Authorization: "53433"})
	Attach(&env, "test", "authorize", json.RawMessage(`7`))

	out := toMap(t, env)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["test"])
	assert.Equal(t, false, out["fraud_review"])
	assert.Equal(t, "ok", out["message"])
	assert.Equal(t, "53433", out["authorization"])
	assert.Equal(t, map[string]interface{}{"order": "42"}, out["passthrough"])
	assert.Equal(t, "XXXX-XXXX-XXXX-1111", out["cc_display"])
	assert.Equal(t, "12", out["cc_exp_month"])
	assert.Equal(t, "2030", out["cc_exp_year"])
	assert.Equal(t, "visa", out["cc_type"])
	assert.Equal(t, "Springfield", out["bill_city"])
	assert.Equal(t, "12345", out["bill_zip"])
	assert.Equal(t, "Shelbyville", out["ship_city"])
	assert.Equal(t, float64(1000), out["money"])
	assert.Equal(t, "USD", out["currency_code"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, out["session_data"])
	assert.Equal(t, "test", out["gateway"])
	assert.Equal(t, "authorize", out["action"])
	assert.Equal(t, float64(7), out["request_id"])
	assert.NotContains(t, out, "card_store")
	assert.NotContains(t, out, "supported_actions")
}

func TestSuccess_StoredReferenceEchoedAsCardStore(t *testing.T) {
	env := Success(Fields{Source: &domain.PaymentSource{Reference: ";123;456"}}, &domain.Result{Success: true})

	out := toMap(t, env)
	assert.Equal(t, ";123;456", out["card_store"])
	assert.NotContains(t, out, "cc_display")
}

func TestFailure_KeepsGatheredFields(t *testing.T) {
	money := int64(500)
	env := Failure(Fields{
		Passthrough: map[string]string{"order": "42"},
		Money:       &money,
	}, domain.MissingParameter("credit_card"))
	Attach(&env, "test", "authorize", nil)

	out := toMap(t, env)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Missing required parameter: credit_card", out["message"])
	assert.Equal(t, float64(500), out["money"])
	assert.Equal(t, map[string]interface{}{"order": "42"}, out["passthrough"])
	assert.Nil(t, out["request_id"])
	assert.Contains(t, out, "request_id")
}

func TestFailure_PlainErrorMessage(t *testing.T) {
	env := Failure(Fields{}, errors.New("Bogus Gateway: Use CreditCard number 1 for success"))
	assert.Equal(t, "Bogus Gateway: Use CreditCard number 1 for success", env.Message)
	assert.False(t, env.Success)
}

func TestRejection(t *testing.T) {
	env := Rejection("Unrecognized gateway")
	Attach(&env, "nope", "authorize", json.RawMessage(`"abc"`))

	out := toMap(t, env)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Unrecognized gateway", out["message"])
	assert.Equal(t, "nope", out["gateway"])
	assert.Equal(t, "abc", out["request_id"])
	assert.Equal(t, map[string]interface{}{}, out["passthrough"])
}
