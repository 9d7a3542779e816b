package orbital

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOrbital decodes every posted request and answers with the configured response body.
type fakeOrbital struct {
	mu       sync.Mutex
	requests []request
	headers  []http.Header
	reply    func(req request) string
}

func (f *fakeOrbital) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var req request
	if err := xml.Unmarshal(raw, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	w.Write([]byte(f.reply(req)))
}

func (f *fakeOrbital) last(t *testing.T) request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func approve(req request) string {
	switch {
	case req.NewOrder != nil:
		return `<?xml version="1.0" encoding="UTF-8"?><Response><NewOrderResp>` +
			`<ProcStatus>0</ProcStatus><ApprovalStatus>1</ApprovalStatus><RespCode>00</RespCode>` +
			`<AuthCode>tst424</AuthCode><TxRefNum>TX1</TxRefNum><OrderID>` + req.NewOrder.OrderID + `</OrderID>` +
			`<CustomerRefNum>` + req.NewOrder.CustomerRefNum + `</CustomerRefNum>` +
			`<StatusMsg>Approved</StatusMsg><RespMsg></RespMsg></NewOrderResp></Response>`
	case req.MarkForCapture != nil:
		return `<Response><MarkForCaptureResp><ProcStatus>0</ProcStatus><TxRefNum>TX2</TxRefNum>` +
			`<OrderID>` + req.MarkForCapture.OrderID + `</OrderID><StatusMsg></StatusMsg></MarkForCaptureResp></Response>`
	case req.Reversal != nil:
		return `<Response><ReversalResp><ProcStatus>0</ProcStatus><TxRefNum>TX3</TxRefNum>` +
			`<OrderID>` + req.Reversal.OrderID + `</OrderID></ReversalResp></Response>`
	default:
		ref := req.Profile.CustomerRefNum
		if ref == "" {
			ref = "REF1"
		}
		return `<Response><ProfileResp><CustomerRefNum>` + ref + `</CustomerRefNum>` +
			`<CustomerName>JOHN SMITH</CustomerName><CCAccountNum>XXXXXXXXXXXX1111</CCAccountNum>` +
			`<CustomerProfileAction>` + req.Profile.Action + `</CustomerProfileAction>` +
			`<ProfileProcStatus>0</ProfileProcStatus><CustomerProfileMessage>Profile Request Processed</CustomerProfileMessage>` +
			`</ProfileResp></Response>`
	}
}

func newTestGateway(t *testing.T, fake *fakeOrbital) *Gateway {
	t.Helper()
	if fake.reply == nil {
		fake.reply = approve
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg, err := ParseConfig(map[string]string{
		"login": "user", "password": "pass", "merchant_id": "041756", "test": "true", "url": server.URL,
	})
	require.NoError(t, err)

	g, err := New(cfg, ports.BackendDeps{Logger: zap.NewNop(), HTTPClient: server.Client()})
	require.NoError(t, err)
	return g
}

func testCard() *domain.CreditCard {
	return &domain.CreditCard{
		Number: "4111111111111111", Month: "1", Year: "2030",
		FirstName: "John", LastName: "Smith", VerificationValue: "123",
	}
}

func run(t *testing.T, g *Gateway, op domain.Operation, args ...interface{}) (*domain.Result, error) {
	t.Helper()
	native, ok := g.Operations()[op]
	require.True(t, ok)
	require.Len(t, args, len(native.Params))
	return native.Invoke(context.Background(), ports.Args(args))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{"login": "u", "password": "p", "merchant_id": "m"})
	require.NoError(t, err)
	assert.Equal(t, "000001", cfg.BIN)
	assert.Equal(t, "001", cfg.TerminalID)
	assert.Equal(t, "840", cfg.CurrencyCode)
	assert.Equal(t, []string{livePrimaryURL, liveSecondaryURL}, cfg.Endpoints())

	cfg, err = ParseConfig(map[string]string{"login": "u", "password": "p", "merchant_id": "m", "test": "true", "bin": "000002"})
	require.NoError(t, err)
	assert.Equal(t, "000002", cfg.BIN)
	assert.Equal(t, []string{testPrimaryURL, testSecondaryURL}, cfg.Endpoints())

	_, err = ParseConfig(map[string]string{"login": "u", "password": "p"})
	assert.ErrorContains(t, err, "merchant_id is required")
}

func TestGateway_SupportsAllOperations(t *testing.T) {
	g := newTestGateway(t, &fakeOrbital{})
	assert.Equal(t, domain.Operations, g.Operations().Supported())
}

func TestGateway_Authorize_WithCard(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationAuthorize, int64(1000), testCard(), domain.Options{
		Values: map[string]interface{}{"order_id": "INV-1"},
		BillingAddress: domain.Address{
			"address1": "5555 Main St", "city": "San Diego", "state": "CA", "zip": "92101",
			"country": "US", "phone": "(555) 555-5555",
		},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Test)
	assert.False(t, result.FraudReview)
	assert.Equal(t, "TX1;INV-1", result.Authorization)
	assert.Equal(t, "tst424", result.Params["auth_code"])

	order := fake.last(t).NewOrder
	require.NotNil(t, order)
	assert.Equal(t, messageAuthorize, order.MessageType)
	assert.Equal(t, "041756", order.MerchantID)
	assert.Equal(t, "4111111111111111", order.AccountNum)
	assert.Equal(t, "0130", order.Exp)
	assert.Equal(t, "1", order.CardSecValInd)
	assert.Equal(t, "1000", order.Amount)
	assert.Equal(t, "INV-1", order.OrderID)
	assert.Equal(t, "92101", order.AVSZip)
	assert.Equal(t, "5555555555", order.AVSPhone)
	assert.Equal(t, "John Smith", order.AVSName)
	require.NotNil(t, order.AVSCountryCode)
	assert.Equal(t, "US", *order.AVSCountryCode)

	headers := fake.headers[0]
	assert.Equal(t, "application/PTI56", headers.Get("Content-Type"))
	assert.Equal(t, "Request", headers.Get("Document-type"))
}

func TestGateway_Authorize_NonAVSCountry(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	_, err := run(t, g, domain.OperationAuthorize, int64(1000), testCard(), domain.Options{
		BillingAddress: domain.Address{"zip": "10115", "country": "DE"},
	})

	require.NoError(t, err)
	order := fake.last(t).NewOrder
	assert.Empty(t, order.AVSZip)
	assert.Len(t, order.OrderID, maxOrderIDSize)
}

func TestGateway_Purchase_WithStoredProfile(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationPurchase, int64(2500), domain.PaymentSource{Reference: ";;REF9"}, nil)

	require.NoError(t, err)
	order := fake.last(t).NewOrder
	assert.Equal(t, messagePurchase, order.MessageType)
	assert.Equal(t, "REF9", order.CustomerRefNum)
	assert.Empty(t, order.AccountNum)
	assert.Nil(t, order.AVSCountryCode)
	assert.Equal(t, "TX1;"+order.OrderID+";REF9", result.Authorization)
}

func TestGateway_Purchase_ReferenceWithoutProfile(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	_, err := run(t, g, domain.OperationPurchase, int64(2500), domain.PaymentSource{Reference: "TX1;ORD1"}, nil)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeBackendError))
	assert.Empty(t, fake.requests)
}

func TestGateway_Authorize_ResponseCodes(t *testing.T) {
	tests := []struct {
		name        string
		respCode    string
		wantSuccess bool
		wantReview  bool
	}{
		{"approved", "00", true, false},
		{"approved low fraud", "91", true, false},
		{"approved medium fraud", "92", true, true},
		{"approved high fraud", "93", true, true},
		{"do not honor", "05", false, false},
		{"unknown code", "ZZ", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOrbital{reply: func(request) string {
				return `<Response><NewOrderResp><ProcStatus>0</ProcStatus><RespCode>` + tt.respCode +
					`</RespCode><RespMsg>` + GetCreditCardResponseCode(tt.respCode).Display + `</RespMsg></NewOrderResp></Response>`
			}}
			g := newTestGateway(t, fake)

			result, err := run(t, g, domain.OperationAuthorize, int64(100), testCard(), nil)

			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantReview, result.FraudReview)
			assert.Equal(t, GetCreditCardResponseCode(tt.respCode).Display, result.Message)
		})
	}
}

func TestGateway_QuickResponseIsFailure(t *testing.T) {
	fake := &fakeOrbital{reply: func(request) string {
		return `<Response><QuickResp><ProcStatus>841</ProcStatus><StatusMsg>Error validating card/account number range</StatusMsg></QuickResp></Response>`
	}}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationAuthorize, int64(100), testCard(), nil)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Error validating card/account number range", result.Message)
	assert.Equal(t, "841", result.Params["proc_status"])
}

func TestGateway_Capture(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationCapture, int64(1000), "TX1;ORD1", nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "TX2;ORD1", result.Authorization)
	capture := fake.last(t).MarkForCapture
	require.NotNil(t, capture)
	assert.Equal(t, "TX1", capture.TxRefNum)
	assert.Equal(t, "ORD1", capture.OrderID)
	assert.Equal(t, "1000", capture.Amount)
}

func TestGateway_Capture_RequiresTransaction(t *testing.T) {
	g := newTestGateway(t, &fakeOrbital{})

	_, err := run(t, g, domain.OperationCapture, int64(1000), ";;REF1", nil)

	require.Error(t, err)
	assert.Equal(t, "Orbital: authorization does not reference a transaction", domain.UserMessage(err))
}

func TestGateway_Void(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationVoid, "TX1;ORD1", domain.Options{
		Values: map[string]interface{}{"transaction_index": float64(1)},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	reversal := fake.last(t).Reversal
	require.NotNil(t, reversal)
	assert.Equal(t, "TX1", reversal.TxRefNum)
	assert.Equal(t, "1", reversal.TxRefIdx)
	assert.Equal(t, "ORD1", reversal.OrderID)
}

func TestGateway_Refund(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationRefund, int64(500), "TX1;ORD1", nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	order := fake.last(t).NewOrder
	assert.Equal(t, messageRefund, order.MessageType)
	assert.Equal(t, "TX1", order.TxRefNum)
	assert.Equal(t, "ORD1", order.OrderID)
	assert.Equal(t, "500", order.Amount)
}

func TestGateway_Store(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationStore, testCard(), domain.Options{
		BillingAddress: domain.Address{"city": "San Diego", "email": "john@smith.com"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, ";;REF1", result.Authorization)
	assert.Equal(t, "Profile Request Processed", result.Message)

	p := fake.last(t).Profile
	require.NotNil(t, p)
	assert.Equal(t, profileCreate, p.Action)
	assert.Equal(t, "A", p.FromOrderInd)
	assert.Equal(t, "John Smith", p.CustomerName)
	assert.Equal(t, "john@smith.com", p.CustomerEmail)
	assert.Equal(t, "4111111111111111", p.CCAccountNum)
	assert.Equal(t, "0130", p.CCExpireDate)
}

func TestGateway_ProfileActions(t *testing.T) {
	fake := &fakeOrbital{}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationRetrieve, ";;REF7", nil)
	require.NoError(t, err)
	assert.Equal(t, ";;REF7", result.Authorization)
	assert.Equal(t, "JOHN SMITH", result.Params["customer_name"])
	assert.Equal(t, profileRetrieve, fake.last(t).Profile.Action)

	result, err = run(t, g, domain.OperationUpdate, ";;REF7", testCard(), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, profileUpdate, fake.last(t).Profile.Action)
	assert.Equal(t, "REF7", fake.last(t).Profile.CustomerRefNum)

	result, err = run(t, g, domain.OperationUnstore, ";;REF7", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Authorization)
	assert.Equal(t, profileDelete, fake.last(t).Profile.Action)
}

func TestGateway_ProfileResponseWithoutRefNumKeepsReference(t *testing.T) {
	fake := &fakeOrbital{reply: func(request) string {
		return `<?xml version="1.0" encoding="UTF-8"?><Response><ProfileResp>` +
			`<ProfileProcStatus>0</ProfileProcStatus><CustomerProfileMessage>Profile Request Processed</CustomerProfileMessage>` +
			`</ProfileResp></Response>`
	}}
	g := newTestGateway(t, fake)

	result, err := run(t, g, domain.OperationUpdate, ";;REF7", testCard(), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, ";;REF7", result.Authorization)

	result, err = run(t, g, domain.OperationRetrieve, ";;REF7", nil)
	require.NoError(t, err)
	assert.Equal(t, ";;REF7", result.Authorization)
}

func TestGateway_FailsOverToSecondaryEndpoint(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	fake := &fakeOrbital{reply: approve}
	up := httptest.NewServer(fake)
	defer up.Close()

	cfg, err := ParseConfig(map[string]string{
		"login": "user", "password": "pass", "merchant_id": "041756",
		"url": downURL, "secondary_url": up.URL,
	})
	require.NoError(t, err)
	g, err := New(cfg, ports.BackendDeps{Logger: zap.NewNop(), HTTPClient: up.Client()})
	require.NoError(t, err)

	result, err := run(t, g, domain.OperationAuthorize, int64(100), testCard(), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, fake.requests, 1)
}

func TestGateway_MalformedResponse(t *testing.T) {
	fake := &fakeOrbital{reply: func(request) string { return "not xml at all" }}
	g := newTestGateway(t, fake)

	_, err := run(t, g, domain.OperationAuthorize, int64(100), testCard(), nil)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeBackendError))
}
