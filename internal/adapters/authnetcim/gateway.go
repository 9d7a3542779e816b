// Package authnetcim presents Authorize.Net's Customer Information Manager as a
// backend. Every transaction runs against a stored customer payment profile, so
// cards are stored first and the resulting ids travel in the authorization token.
package authnetcim

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/adapters/transport"
	"github.com/kevin07696/payment-bridge/internal/authtoken"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Family is the module name the registry knows this backend by.
const Family = "authorize_net_cim"

// Token layout: transaction_id;customer_profile_id;payment_profile_id;shipping_address_id
const (
	tokenTransaction = iota
	tokenProfile
	tokenPaymentProfile
	tokenShippingAddress
	tokenArity
)

// Gateway is an Authorize.Net CIM backend.
type Gateway struct {
	cfg         Config
	auth        merchantAuthentication
	client      poster
	logger      *zap.Logger
	diagnostics io.Writer
	ops         ports.OperationTable
}

// New creates a CIM backend posting through the shared transport.
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
		Name:              Family,
		Endpoints:         []string{cfg.Endpoint()},
		ContentType:       "application/json",
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             1,
		MaxAttempts:       2,
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
	g := &Gateway{
		cfg:         cfg,
		auth:        merchantAuthentication{Name: cfg.Login, TransactionKey: cfg.Password},
		client:      client,
		logger:      logger,
		diagnostics: diagnostics,
	}

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
			Params: []ports.Param{ports.Required("identification"), ports.Optional("options")},
			Invoke: g.void,
		},
		domain.OperationRefund: {
			Params: []ports.Param{ports.Required("money"), ports.Required("identification"), ports.Optional("options")},
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
	return g.chargeSource(ctx, args, func(t *profileTransaction) transaction {
		return transaction{AuthOnly: t}
	})
}

func (g *Gateway) purchase(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.chargeSource(ctx, args, func(t *profileTransaction) transaction {
		return transaction{AuthCapture: t}
	})
}

// chargeSource runs an auth-only or auth-capture against a stored profile,
// storing the card first when the caller sent one.
func (g *Gateway) chargeSource(ctx context.Context, args ports.Args, wrap func(*profileTransaction) transaction) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	source, err := args.Source(1)
	if err != nil {
		return nil, err
	}
	options := args.Options(2)

	reference := source.Reference
	if !source.IsReference() {
		stored, err := g.storeCard(ctx, source.Card, options)
		if err != nil {
			return nil, err
		}
		if !stored.Success {
			return stored, nil
		}
		reference = stored.Authorization
	}

	tx, err := g.profileTransaction(reference, options, false)
	if err != nil {
		return nil, err
	}
	tx.Amount = formatAmount(money)
	return g.transact(ctx, reference, wrap(tx))
}

func (g *Gateway) capture(ctx context.Context, args ports.Args) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	reference := args.String(1)

	tx, err := g.profileTransaction(reference, args.Options(2), true)
	if err != nil {
		return nil, err
	}
	tx.Amount = formatAmount(money)
	return g.transact(ctx, reference, transaction{PriorAuthCapture: tx})
}

func (g *Gateway) refund(ctx context.Context, args ports.Args) (*domain.Result, error) {
	money, err := args.Money(0)
	if err != nil {
		return nil, err
	}
	reference := args.String(1)

	tx, err := g.profileTransaction(reference, args.Options(2), true)
	if err != nil {
		return nil, err
	}
	tx.Amount = formatAmount(money)
	return g.transact(ctx, reference, transaction{Refund: tx})
}

func (g *Gateway) void(ctx context.Context, args ports.Args) (*domain.Result, error) {
	reference := args.String(0)

	tx, err := g.profileTransaction(reference, args.Options(1), true)
	if err != nil {
		return nil, err
	}
	return g.transact(ctx, reference, transaction{Void: tx})
}

func (g *Gateway) store(ctx context.Context, args ports.Args) (*domain.Result, error) {
	source, err := args.Source(0)
	if err != nil {
		return nil, err
	}
	if source.IsReference() {
		return nil, domain.NewBackendError("Authorize.Net CIM: store requires a credit card")
	}
	return g.storeCard(ctx, source.Card, args.Options(1))
}

// storeCard creates a customer profile, a payment profile and, when a shipping
// address is present, a shipping address. If a later step fails the customer
// profile is deleted again so no half-built profile is left behind.
func (g *Gateway) storeCard(ctx context.Context, card *domain.CreditCard, options domain.Options) (*domain.Result, error) {
	email := options.String("email")
	if email == "" {
		email = options.BillingAddress["email"]
	}

	resp, err := g.call(ctx, "createCustomerProfileRequest", createCustomerProfileRequest{
		MerchantAuthentication: g.auth,
		RefID:                  newRefID(),
		Profile: customerProfile{
			MerchantCustomerID: merchantCustomerID(options),
			Description:        options.String("description"),
			Email:              email,
		},
	})
	if err != nil {
		return nil, err
	}
	if !resp.success() {
		return g.result(resp, ""), nil
	}
	profileID := resp.CustomerProfileID

	resp, err = g.call(ctx, "createCustomerPaymentProfileRequest", createCustomerPaymentProfileRequest{
		MerchantAuthentication: g.auth,
		RefID:                  newRefID(),
		CustomerProfileID:      profileID,
		PaymentProfile: paymentProfile{
			BillTo:  billTo(card, options.BillingAddress),
			Payment: payment{CreditCard: toCreditCard(card)},
		},
	})
	if err != nil || !resp.success() {
		g.compensate(ctx, profileID)
		if err != nil {
			return nil, err
		}
		return g.result(resp, ""), nil
	}
	paymentProfileID := resp.CustomerPaymentProfileID

	var addressID string
	if options.ShippingAddress != nil {
		resp, err = g.call(ctx, "createCustomerShippingAddressRequest", createCustomerShippingAddressRequest{
			MerchantAuthentication: g.auth,
			RefID:                  newRefID(),
			CustomerProfileID:      profileID,
			Address:                toAddress(options.ShippingAddress),
		})
		if err != nil || !resp.success() {
			g.compensate(ctx, profileID)
			if err != nil {
				return nil, err
			}
			return g.result(resp, ""), nil
		}
		addressID = resp.CustomerAddressID
	}

	return g.result(resp, authtoken.Encode("", profileID, paymentProfileID, addressID)), nil
}

// compensate deletes a customer profile created by a store that did not complete.
func (g *Gateway) compensate(ctx context.Context, profileID string) {
	resp, err := g.call(ctx, "deleteCustomerProfileRequest", deleteCustomerProfileRequest{
		MerchantAuthentication: g.auth,
		CustomerProfileID:      profileID,
	})
	if err != nil {
		g.logger.Error("Failed to delete incomplete customer profile",
			zap.String("customer_profile_id", profileID),
			zap.Error(err),
		)
		return
	}
	if !resp.success() {
		g.logger.Warn("Gateway refused to delete incomplete customer profile",
			zap.String("customer_profile_id", profileID),
			zap.String("message", resp.text()),
		)
	}
}

func (g *Gateway) retrieve(ctx context.Context, args ports.Args) (*domain.Result, error) {
	reference := args.String(0)
	token := authtoken.Decode(reference, tokenArity)
	if token.Field(tokenProfile) == "" {
		return nil, errNoProfile
	}

	resp, err := g.call(ctx, "getCustomerProfileRequest", getCustomerProfileRequest{
		MerchantAuthentication: g.auth,
		CustomerProfileID:      token.Field(tokenProfile),
	})
	if err != nil {
		return nil, err
	}

	result := g.result(resp, reference)
	if resp.Profile != nil {
		result.Params["merchant_customer_id"] = resp.Profile.MerchantCustomerID
		result.Params["email"] = resp.Profile.Email
		result.Params["payment_profiles"] = fmt.Sprint(len(resp.Profile.PaymentProfiles))
	}
	return result, nil
}

func (g *Gateway) update(ctx context.Context, args ports.Args) (*domain.Result, error) {
	reference := args.String(0)
	source, err := args.Source(1)
	if err != nil {
		return nil, err
	}
	if source.IsReference() {
		return nil, domain.NewBackendError("Authorize.Net CIM: update requires a credit card")
	}
	options := args.Options(2)

	token := authtoken.Decode(reference, tokenArity)
	if token.Field(tokenProfile) == "" || token.Field(tokenPaymentProfile) == "" {
		return nil, errNoProfile
	}

	resp, err := g.call(ctx, "updateCustomerPaymentProfileRequest", updateCustomerPaymentProfileRequest{
		MerchantAuthentication: g.auth,
		RefID:                  newRefID(),
		CustomerProfileID:      token.Field(tokenProfile),
		PaymentProfile: paymentProfile{
			BillTo:                   billTo(source.Card, options.BillingAddress),
			Payment:                  payment{CreditCard: toCreditCard(source.Card)},
			CustomerPaymentProfileID: token.Field(tokenPaymentProfile),
		},
	})
	if err != nil {
		return nil, err
	}
	return g.result(resp, reference), nil
}

// unstore deletes the shipping address, then the payment profile, then the customer profile.
func (g *Gateway) unstore(ctx context.Context, args ports.Args) (*domain.Result, error) {
	token := authtoken.Decode(args.String(0), tokenArity)
	profileID := token.Field(tokenProfile)
	if profileID == "" {
		return nil, errNoProfile
	}

	if addressID := token.Field(tokenShippingAddress); addressID != "" {
		resp, err := g.call(ctx, "deleteCustomerShippingAddressRequest", deleteCustomerShippingAddressRequest{
			MerchantAuthentication: g.auth,
			CustomerProfileID:      profileID,
			CustomerAddressID:      addressID,
		})
		if err != nil {
			return nil, err
		}
		if !resp.success() {
			g.logger.Warn("Failed to delete shipping address", zap.String("message", resp.text()))
		}
	}

	if paymentProfileID := token.Field(tokenPaymentProfile); paymentProfileID != "" {
		resp, err := g.call(ctx, "deleteCustomerPaymentProfileRequest", deleteCustomerPaymentProfileRequest{
			MerchantAuthentication:   g.auth,
			CustomerProfileID:        profileID,
			CustomerPaymentProfileID: paymentProfileID,
		})
		if err != nil {
			return nil, err
		}
		if !resp.success() {
			g.logger.Warn("Failed to delete payment profile", zap.String("message", resp.text()))
		}
	}

	resp, err := g.call(ctx, "deleteCustomerProfileRequest", deleteCustomerProfileRequest{
		MerchantAuthentication: g.auth,
		CustomerProfileID:      profileID,
	})
	if err != nil {
		return nil, err
	}
	return g.result(resp, ""), nil
}

var errNoProfile = domain.NewBackendError("Authorize.Net CIM: authorization does not reference a customer profile")

// profileTransaction fills the profile ids from reference. withTransID also
// carries the original transaction id, which follow-up transactions require.
func (g *Gateway) profileTransaction(reference string, options domain.Options, withTransID bool) (*profileTransaction, error) {
	token := authtoken.Decode(reference, tokenArity)
	if token.Field(tokenProfile) == "" || token.Field(tokenPaymentProfile) == "" {
		return nil, errNoProfile
	}

	tx := &profileTransaction{
		CustomerProfileID:         token.Field(tokenProfile),
		CustomerPaymentProfileID:  token.Field(tokenPaymentProfile),
		CustomerShippingAddressID: token.Field(tokenShippingAddress),
	}
	if withTransID {
		tx.TransID = token.Field(tokenTransaction)
	} else if invoice := options.String("order_id"); invoice != "" {
		tx.Order = &order{InvoiceNumber: invoice, Description: options.String("description")}
	}
	return tx, nil
}

// transact posts a profile transaction and merges the new transaction id into reference.
func (g *Gateway) transact(ctx context.Context, reference string, tx transaction) (*domain.Result, error) {
	resp, err := g.call(ctx, "createCustomerProfileTransactionRequest", createCustomerProfileTransactionRequest{
		MerchantAuthentication: g.auth,
		RefID:                  newRefID(),
		Transaction:            tx,
	})
	if err != nil {
		return nil, err
	}

	direct := parseDirectResponse(resp.DirectResponse)
	result := g.result(resp, authtoken.Merge(reference, direct.TransactionID, tokenArity))
	result.FraudReview = direct.Code == heldForReview
	if direct.AuthCode != "" {
		result.Params["auth_code"] = direct.AuthCode
	}
	if direct.ReasonText != "" {
		result.Params["response_reason_text"] = direct.ReasonText
	}
	return result, nil
}

func (g *Gateway) result(resp *response, authorization string) *domain.Result {
	text := resp.text()
	return &domain.Result{
		Success:       resp.success(),
		Test:          g.cfg.Test || strings.Contains(text, "Test Mode"),
		Message:       text,
		Authorization: authorization,
		Params:        map[string]string{"result_code": resp.Messages.ResultCode},
	}
}

func formatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// newRefID returns a correlation id within the API's 20 character limit.
func newRefID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// merchantCustomerID uses the caller's customer id when given, else a fresh one.
func merchantCustomerID(options domain.Options) string {
	if id := options.String("customer_id"); id != "" {
		return id
	}
	return newRefID()
}

func toCreditCard(card *domain.CreditCard) creditCard {
	return creditCard{
		CardNumber:     card.Number,
		ExpirationDate: card.ExpiryYear() + "-" + card.ExpiryMonth(),
		CardCode:       card.VerificationValue,
	}
}

func billTo(card *domain.CreditCard, addr domain.Address) *customerAddress {
	a := toAddress(addr)
	if a.FirstName == "" {
		a.FirstName = card.FirstName
	}
	if a.LastName == "" {
		a.LastName = card.LastName
	}
	return &a
}

func toAddress(addr domain.Address) customerAddress {
	street := addr["address1"]
	if addr["address2"] != "" {
		street = strings.TrimSpace(street + " " + addr["address2"])
	}
	return customerAddress{
		FirstName: addr["first_name"],
		LastName:  addr["last_name"],
		Address:   street,
		City:      addr["city"],
		State:     addr["state"],
		Zip:       addr["zip"],
		Country:   addr["country"],
		Email:     addr["email"],
	}
}
