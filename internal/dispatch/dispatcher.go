// Package dispatch runs one request cycle: validation, backend lookup, parameter
// binding, invocation and normalization. Every cycle ends in an envelope; no
// error or panic raised while serving a request escapes Dispatch.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/kevin07696/payment-bridge/internal/normalize"
	"github.com/kevin07696/payment-bridge/internal/reconcile"
	"github.com/kevin07696/payment-bridge/pkg/observability"
	"go.uber.org/zap"
)

// BackendResolver looks up the backend configured under a gateway name.
type BackendResolver interface {
	Resolve(name string) (ports.Backend, bool)
}

// Dispatcher turns requests into envelopes.
type Dispatcher struct {
	backends BackendResolver
	logger   *zap.Logger
}

// New creates a Dispatcher over the given backends.
func New(backends BackendResolver, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{backends: backends, logger: logger}
}

// Dispatch serves one request. The returned envelope always carries the request's
// gateway, action and request_id.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.Request) domain.Envelope {
	env, outcome, known := d.dispatch(ctx, req)
	normalize.Attach(&env, req.Gateway, req.Action, req.RequestID)

	action := req.Action
	if _, ok := domain.ParseOperation(action); !ok && action != "" {
		action = "unrecognized"
	}
	observability.RecordRequest(req.Gateway, action, outcome, known)
	return env
}

func (d *Dispatcher) dispatch(ctx context.Context, req *domain.Request) (domain.Envelope, string, bool) {
	backend, ok := d.backends.Resolve(req.Gateway)
	if !ok {
		return d.reject(req, domain.ErrUnrecognizedGateway), observability.OutcomeRejected, false
	}

	table := backend.Operations()
	if req.Action == "" {
		env := d.reject(req, domain.ErrNoAction)
		env.SupportedActions = table.Supported()
		return env, observability.OutcomeRejected, true
	}
	if req.Data == nil {
		return d.reject(req, domain.ErrNoData), observability.OutcomeRejected, true
	}
	if req.SecureData == nil {
		return d.reject(req, domain.ErrNoSecureData), observability.OutcomeRejected, true
	}

	op, _ := domain.ParseOperation(req.Action)
	native, supported := table[op]
	if !supported {
		return d.reject(req, domain.ErrUnrecognizedAction), observability.OutcomeRejected, true
	}

	fields, bag, err := gather(op, req)
	if err != nil {
		d.logFailure(req, err)
		return normalize.Failure(fields, err), observability.OutcomeRejected, true
	}

	args, err := reconcile.Bind(native.Params, bag)
	if err != nil {
		d.logFailure(req, err)
		return normalize.Failure(fields, err), observability.OutcomeRejected, true
	}

	result, err := d.invoke(ctx, backend, op, native, args)
	if err != nil {
		d.logFailure(req, err)
		return normalize.Failure(fields, err), observability.OutcomeError, true
	}

	outcome := observability.OutcomeSuccess
	if !result.Success {
		outcome = observability.OutcomeFailure
	}
	d.logger.Info("Request completed",
		zap.String("gateway", req.Gateway),
		zap.String("action", req.Action),
		zap.Bool("success", result.Success),
		zap.Bool("fraud_review", result.FraudReview),
	)
	return normalize.Success(fields, result), outcome, true
}

func (d *Dispatcher) reject(req *domain.Request, err *domain.DomainError) domain.Envelope {
	d.logger.Debug("Request rejected",
		zap.String("gateway", req.Gateway),
		zap.String("action", req.Action),
		zap.String("reason", err.Message),
	)
	return normalize.Rejection(err.Message)
}

// invoke calls the backend, converting a panic into an internal error.
func (d *Dispatcher) invoke(ctx context.Context, backend ports.Backend, op domain.Operation, native ports.NativeOperation, args ports.Args) (result *domain.Result, err error) {
	start := time.Now()
	defer func() {
		observability.RecordBackendCall(backend.Family(), op.String(), time.Since(start).Seconds())
		if r := recover(); r != nil {
			d.logger.Error("Backend panicked",
				zap.String("family", backend.Family()),
				zap.String("action", op.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			result = nil
			err = domain.NewDomainError(domain.ErrorCodeInternalError, fmt.Sprint(r))
		}
	}()

	result, err = native.Invoke(ctx, args)
	if err == nil && result == nil {
		err = domain.NewBackendError(backend.Family() + " returned no result")
	}
	return result, err
}

func (d *Dispatcher) logFailure(req *domain.Request, err error) {
	fields := []zap.Field{
		zap.String("gateway", req.Gateway),
		zap.String("action", req.Action),
		zap.String("error_code", string(domain.GetErrorCode(err))),
		zap.Error(err),
	}
	if domain.IsCallerError(err) {
		d.logger.Debug("Request failed", fields...)
		return
	}
	d.logger.Warn("Request failed", fields...)
}

// gather collects the echoed fields and the parameter bag for op. Fields gathered
// before an error are returned with it so the failure envelope still echoes them.
func gather(op domain.Operation, req *domain.Request) (normalize.Fields, reconcile.Bag, error) {
	secure := req.SecureData
	fields := normalize.Fields{
		Passthrough:  normalize.Passthrough(req.Data, secure.Passthrough),
		CurrencyCode: secure.CurrencyCode,
	}
	if session := bytes.TrimSpace(secure.SessionData); len(session) > 0 && !bytes.Equal(session, []byte("null")) {
		fields.SessionData = secure.SessionData
	}

	bag := make(reconcile.Bag)

	options := domain.BuildOptions(req.Data, secure)
	fields.Options = &options
	bag[reconcile.RoleOptions] = options

	if reconcile.Takes(op, reconcile.RoleMoney) && secure.HasAmount() {
		amount, err := secure.Amount()
		if err != nil {
			return fields, bag, err
		}
		fields.Money = &amount
		bag[reconcile.RoleMoney] = amount
	}

	if reconcile.Takes(op, reconcile.RoleCreditCard) {
		source, err := paymentSource(op, req)
		if err != nil {
			return fields, bag, err
		}
		fields.Source = &source
		bag[reconcile.RoleCreditCard] = source
	}

	if secure.Authorization != "" {
		bag[reconcile.RoleAuthorization] = secure.Authorization
	}

	return fields, bag, nil
}

// paymentSource is the stored reference named by card_store on authorize and
// purchase, otherwise the card built from the form fields.
func paymentSource(op domain.Operation, req *domain.Request) (domain.PaymentSource, error) {
	if ref := req.SecureData.CardStore; ref != "" && (op == domain.OperationAuthorize || op == domain.OperationPurchase) {
		return domain.PaymentSource{Reference: ref}, nil
	}

	card, err := domain.NewCreditCard(req.Data)
	if err != nil {
		return domain.PaymentSource{}, err
	}
	return domain.PaymentSource{Card: card}, nil
}
