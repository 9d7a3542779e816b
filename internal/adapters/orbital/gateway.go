// Package orbital presents the Chase Paymentech Orbital XML interface as a backend.
// Orders carry the gateway's tx_ref_num and order id back to the caller, and
// stored cards live in Orbital customer profiles keyed by customer_ref_num.
package orbital

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/adapters/transport"
	"github.com/kevin07696/payment-bridge/internal/authtoken"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"go.uber.org/zap"
)

// Family is the module name the registry knows this backend by.
const Family = "orbital"

// Token layout: tx_ref_num;order_id;customer_ref_num
const (
	tokenTxRefNum = iota
	tokenOrderID
	tokenCustomerRefNum
	tokenArity
)

const (
	procSuccess    = "0"
	industryType   = "EC"
	maxOrderIDSize = 22
)

// Countries Orbital runs address verification for.
var avsCountries = map[string]bool{"US": true, "CA": true, "GB": true, "UK": true}

var (
	errNoTransaction = domain.NewBackendError("Orbital: authorization does not reference a transaction")
	errNoProfile     = domain.NewBackendError("Orbital: authorization does not reference a customer profile")
)

type poster interface {
	Post(ctx context.Context, body []byte) ([]byte, error)
}

// Gateway is a Chase Orbital backend.
type Gateway struct {
	cfg         Config
	client      poster
	logger      *zap.Logger
	diagnostics io.Writer
	ops         ports.OperationTable
}

// New creates an Orbital backend that fails over to the secondary endpoint on connection errors.
func New(cfg Config, deps ports.BackendDeps) (*Gateway, error) {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(transport.GatewayClientConfig(), 60*time.Second)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := transport.NewClient(transport.Config{
		Name:        Family,
		Endpoints:   cfg.Endpoints(),
		ContentType: "application/PTI56",
		Headers: map[string]string{
			"MIME-Version":              "1.1",
			"Content-Transfer-Encoding": "text",
			"Request-Number":            "1",
			"Document-type":             "Request",
			"Interface-Version":         "Go|PaymentBridge|Proprietary Gateway",
		},
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             1,
		MaxAttempts:       1,
	}, httpClient, logger, deps.Diagnostics)
	if err != nil {
		return nil, err
	}

	return newGateway(cfg, client, logger, deps.Diagnostics), nil
}

func newGateway(cfg Config, client poster, logger *zap.Logger, diagnostics io.Writer) *Gateway {
	if diagnostics == nil {
		diagnostics = io.Discard
	}
	g := &Gateway{cfg: cfg, client: client, logger: logger, diagnostics: diagnostics}

	g.ops = ports.OperationTable{
		domain.OperationAuthorize: {
			Params: []ports.Param{ports.Required("money"), ports.Required("creditcard_or_reference"), ports.Optional("options")},
			Invoke: g.authorize,
		},
		domain.OperationCapture: {
			Params: []ports.Param{ports.Required("money"), ports.Required("authorization"), ports.Optional("options")},
			Invoke: g.capture,
		},
		domain.OperationPurchase: {
			Params: []ports.Param{ports.Required("money"), ports.Required("creditcard_or_reference"), ports.Optional("options")},
			Invoke: g.purchase,
		},
		domain.OperationVoid: {
			Params: []ports.Param{ports.Required("authorization"), ports.Optional("options")},
			Invoke: g.void,
		},
		domain.OperationRefund: {
			Params: []ports.Param{ports.Required("money"), ports.Required("authorization"), ports.Optional("options")},
			Invoke: g.refund,
		},
		domain.OperationStore: {
			Params: []ports.Param{ports.Required("creditcard"), ports.Optional("options")},
			Invoke: g.store,
		},
		domain.OperationRetrieve: {
			Params: []ports.Param{ports.Required("reference"), ports.Optional("options")},
			Invoke: g.retrieve,
		},
		domain.OperationUpdate: {
			Params: []ports.Param{ports.Required("reference"), ports.Required("creditcard"), ports.Optional("options")},
			Invoke: g.update,
		},
		domain.OperationUnstore: {
			Params: []ports.Param{ports.Required("reference"), ports.Optional("options")},
			Invoke: g.unstore,
		},
	}
	return g
}

// Family implements ports.Backend.
func (g *Gateway) Family() string { return Family }

// Operations implements ports.Backend.
func (g *Gateway) Operations() ports.OperationTable { return g.ops }

func (g *Gateway) authorize(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.order(ctx, messageAuthorize, args)
}

func (g *Gateway) purchase(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.order(ctx, messagePurchase, args)
}

// order sends a NewOrder for a card, or for a stored profile when given a reference.
func (g *Gateway) order(ctx context.Context, messageType string, args ports.Args) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	source, err := args.Source(1)
	if err != nil {
		return nil, err
	}
	options := args.Options(2)

	order := g.newOrder(messageType, money, options)
	if source.IsReference() {
		ref := authtoken.Decode(source.Reference, tokenArity).Field(tokenCustomerRefNum)
		if ref == "" {
			return nil, errNoProfile
		}
		order.CustomerRefNum = ref
	} else {
		card := source.Card
		order.AccountNum = card.Number
		order.Exp = expiry(card)
		if card.VerificationValue != "" {
			if brand := card.Brand(); brand == "visa" || brand == "discover" {
				order.CardSecValInd = "1"
			}
			order.CardSecVal = card.VerificationValue
		}
	}
	addAddress(order, source.Card, options.BillingAddress)

	resp, err := g.call(ctx, &request{NewOrder: order})
	if err != nil {
		return nil, err
	}
	info := GetCreditCardResponseCode(resp.RespCode)
	result := g.result(resp, resp.ProcStatus == procSuccess && info.IsApproved, transactionToken(resp, order.OrderID))
	result.FraudReview = info.FraudReview
	return result, nil
}

func (g *Gateway) capture(ctx context.Context, args ports.Args) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	token := authtoken.Decode(args.String(1), tokenArity)
	if token.Field(tokenTxRefNum) == "" {
		return nil, errNoTransaction
	}

	resp, err := g.call(ctx, &request{MarkForCapture: &markForCapture{
		Username:   g.cfg.Login,
		Password:   g.cfg.Password,
		OrderID:    token.Field(tokenOrderID),
		Amount:     strconv.FormatInt(money, 10),
		BIN:        g.cfg.BIN,
		MerchantID: g.cfg.MerchantID,
		TerminalID: g.cfg.TerminalID,
		TxRefNum:   token.Field(tokenTxRefNum),
	}})
	if err != nil {
		return nil, err
	}
	return g.result(resp, resp.ProcStatus == procSuccess, transactionToken(resp, token.Field(tokenOrderID))), nil
}

func (g *Gateway) void(ctx context.Context, args ports.Args) (*domain.Result, error) {
	token := authtoken.Decode(args.String(0), tokenArity)
	if token.Field(tokenTxRefNum) == "" {
		return nil, errNoTransaction
	}
	options := args.Options(1)

	resp, err := g.call(ctx, &request{Reversal: &reversal{
		Username:   g.cfg.Login,
		Password:   g.cfg.Password,
		TxRefNum:   token.Field(tokenTxRefNum),
		TxRefIdx:   options.String("transaction_index"),
		OrderID:    token.Field(tokenOrderID),
		BIN:        g.cfg.BIN,
		MerchantID: g.cfg.MerchantID,
		TerminalID: g.cfg.TerminalID,
	}})
	if err != nil {
		return nil, err
	}
	return g.result(resp, resp.ProcStatus == procSuccess, transactionToken(resp, token.Field(tokenOrderID))), nil
}

func (g *Gateway) refund(ctx context.Context, args ports.Args) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	token := authtoken.Decode(args.String(1), tokenArity)
	if token.Field(tokenTxRefNum) == "" && token.Field(tokenCustomerRefNum) == "" {
		return nil, errNoTransaction
	}

	order := g.newOrder(messageRefund, money, args.Options(2))
	if id := token.Field(tokenOrderID); id != "" {
		order.OrderID = id
	}
	order.TxRefNum = token.Field(tokenTxRefNum)
	order.CustomerRefNum = token.Field(tokenCustomerRefNum)

	resp, err := g.call(ctx, &request{NewOrder: order})
	if err != nil {
		return nil, err
	}
	return g.result(resp, resp.ProcStatus == procSuccess, transactionToken(resp, order.OrderID)), nil
}

func (g *Gateway) store(ctx context.Context, args ports.Args) (*domain.Result, error) {
	source, err := args.Source(0)
	if err != nil {
		return nil, err
	}
	if source.IsReference() {
		return nil, domain.NewBackendError("Orbital: store requires a credit card")
	}
	options := args.Options(1)

	p := g.cardProfile(profileCreate, source.Card, options)
	p.OrderOverrideInd = "NO"
	p.FromOrderInd = "A"
	if ref := options.String("customer_ref_num"); ref != "" {
		p.CustomerRefNum = ref
		p.FromOrderInd = "S"
	}
	return g.profile(ctx, p)
}

func (g *Gateway) update(ctx context.Context, args ports.Args) (*domain.Result, error) {
	ref := authtoken.Decode(args.String(0), tokenArity).Field(tokenCustomerRefNum)
	if ref == "" {
		return nil, errNoProfile
	}
	source, err := args.Source(1)
	if err != nil {
		return nil, err
	}
	if source.IsReference() {
		return nil, domain.NewBackendError("Orbital: update requires a credit card")
	}

	p := g.cardProfile(profileUpdate, source.Card, args.Options(2))
	p.CustomerRefNum = ref
	return g.profile(ctx, p)
}

func (g *Gateway) retrieve(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.profileAction(ctx, profileRetrieve, args.String(0))
}

func (g *Gateway) unstore(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.profileAction(ctx, profileDelete, args.String(0))
}

func (g *Gateway) profileAction(ctx context.Context, action, reference string) (*domain.Result, error) {
	ref := authtoken.Decode(reference, tokenArity).Field(tokenCustomerRefNum)
	if ref == "" {
		return nil, errNoProfile
	}
	return g.profile(ctx, &profile{
		Username:           g.cfg.Login,
		Password:           g.cfg.Password,
		CustomerBin:        g.cfg.BIN,
		CustomerMerchantID: g.cfg.MerchantID,
		CustomerRefNum:     ref,
		Action:             action,
	})
}

func (g *Gateway) profile(ctx context.Context, p *profile) (*domain.Result, error) {
	resp, err := g.call(ctx, &request{Profile: p})
	if err != nil {
		return nil, err
	}

	authorization := ""
	if p.Action != profileDelete {
		ref := resp.CustomerRefNum
		if ref == "" {
			ref = p.CustomerRefNum
		}
		authorization = authtoken.Encode("", "", ref)
	}
	result := g.result(resp, resp.ProfileProcStatus == procSuccess, authorization)
	if p.Action == profileRetrieve {
		result.Params["customer_name"] = resp.CustomerName
		result.Params["cc_account_num"] = resp.CCAccountNum
	}
	return result, nil
}

func (g *Gateway) newOrder(messageType string, money int64, options domain.Options) *newOrder {
	return &newOrder{
		Username:         g.cfg.Login,
		Password:         g.cfg.Password,
		IndustryType:     industryType,
		MessageType:      messageType,
		BIN:              g.cfg.BIN,
		MerchantID:       g.cfg.MerchantID,
		TerminalID:       g.cfg.TerminalID,
		CurrencyCode:     g.cfg.CurrencyCode,
		CurrencyExponent: "2",
		OrderID:          orderID(options),
		Amount:           strconv.FormatInt(money, 10),
		Comments:         options.String("description"),
	}
}

func (g *Gateway) cardProfile(action string, card *domain.CreditCard, options domain.Options) *profile {
	addr := options.BillingAddress
	if addr == nil {
		addr = domain.Address{}
	}
	email := options.String("email")
	if email == "" {
		email = addr["email"]
	}
	return &profile{
		Username:            g.cfg.Login,
		Password:            g.cfg.Password,
		CustomerBin:         g.cfg.BIN,
		CustomerMerchantID:  g.cfg.MerchantID,
		CustomerName:        card.Name(),
		CustomerAddress1:    addr["address1"],
		CustomerAddress2:    addr["address2"],
		CustomerCity:        addr["city"],
		CustomerState:       addr["state"],
		CustomerZIP:         addr["zip"],
		CustomerEmail:       email,
		CustomerPhone:       digits(addr["phone"]),
		CustomerCountryCode: addr["country"],
		Action:              action,
		AccountType:         "CC",
		Status:              "A",
		CCAccountNum:        card.Number,
		CCExpireDate:        expiry(card),
	}
}

// call posts req and returns the result element of the response.
func (g *Gateway) call(ctx context.Context, req *request) (*orderResult, error) {
	body, err := xml.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode orbital request: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	raw, err := g.client.Post(ctx, body)
	if err != nil {
		return nil, domain.WrapBackendError("Orbital: gateway request failed", err)
	}

	var resp response
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&resp); err != nil {
		return nil, domain.WrapBackendError("Orbital: malformed gateway response", err)
	}
	result := resp.result()
	if result == nil {
		return nil, domain.NewBackendError("Orbital: gateway response carried no result")
	}

	fmt.Fprintf(g.diagnostics, "orbital %s proc_status=%s resp_code=%s profile_proc_status=%s\n",
		requestKind(req), result.ProcStatus, result.RespCode, result.ProfileProcStatus)
	return result, nil
}

func (g *Gateway) result(resp *orderResult, success bool, authorization string) *domain.Result {
	params := map[string]string{"proc_status": resp.ProcStatus}
	for key, value := range map[string]string{
		"resp_code":           resp.RespCode,
		"auth_code":           resp.AuthCode,
		"avs_resp_code":       resp.AVSRespCode,
		"cvv2_resp_code":      resp.CVV2RespCode,
		"profile_proc_status": resp.ProfileProcStatus,
	} {
		if value != "" {
			params[key] = value
		}
	}
	return &domain.Result{
		Success:       success,
		Test:          g.cfg.Test,
		Message:       resp.message(),
		Authorization: authorization,
		Params:        params,
	}
}

// transactionToken carries the gateway's order id when it returned one, else the id sent.
func transactionToken(resp *orderResult, sentOrderID string) string {
	id := resp.OrderID
	if id == "" {
		id = sentOrderID
	}
	return authtoken.Encode(resp.TxRefNum, id, resp.CustomerRefNum)
}

func requestKind(req *request) string {
	switch {
	case req.NewOrder != nil:
		return "NewOrder/" + req.NewOrder.MessageType
	case req.MarkForCapture != nil:
		return "MarkForCapture"
	case req.Reversal != nil:
		return "Reversal"
	case req.Profile != nil:
		return "Profile/" + req.Profile.Action
	}
	return "unknown"
}

func addAddress(order *newOrder, card *domain.CreditCard, addr domain.Address) {
	if addr == nil {
		return
	}

	country := strings.ToUpper(addr["country"])
	code := ""
	if avsCountries[country] {
		order.AVSZip = addr["zip"]
		order.AVSAddress1 = addr["address1"]
		order.AVSAddress2 = addr["address2"]
		order.AVSCity = addr["city"]
		order.AVSState = addr["state"]
		order.AVSPhone = digits(addr["phone"])
		code = country
	}
	if card != nil {
		order.AVSName = card.Name()
	}
	order.AVSCountryCode = &code
}

// orderID uses the caller's order id when given, else a fresh one within Orbital's limit.
func orderID(options domain.Options) string {
	id := options.String("order_id")
	if id == "" {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(id) > maxOrderIDSize {
		id = id[:maxOrderIDSize]
	}
	return id
}

// expiry formats a card expiry as MMYY.
func expiry(card *domain.CreditCard) string {
	year := card.ExpiryYear()
	if len(year) > 2 {
		year = year[len(year)-2:]
	}
	return card.ExpiryMonth() + year
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
