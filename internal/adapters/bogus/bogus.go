// Package bogus is an in-process backend for exercising the bridge without a gateway.
// Outcomes are forced by the card number or authorization the caller sends.
package bogus

import (
	"context"
	"fmt"
	"io"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"go.uber.org/zap"
)

// Family is the module name the registry knows this backend by.
const Family = "bogus"

// Authorization is returned by every successful call.
const Authorization = "53433"

const (
	successMessage = "Bogus Gateway: Forced success"
	failureMessage = "Bogus Gateway: Forced failure"

	sourceErrorMessage    = "Bogus Gateway: Use CreditCard number 1 for success, 2 for exception and anything else for error"
	referenceErrorMessage = "Bogus Gateway: Use authorization number 1 for exception, 2 for error and anything else for success"
	unstoreErrorMessage   = "Bogus Gateway: Use trans_id 1 for success, 2 for exception and anything else for error"
)

// Config is the bogus backend's typed configuration. It takes no params.
type Config struct{}

// ParseConfig accepts any params; the bogus backend has nothing to configure.
func ParseConfig(map[string]string) (Config, error) {
	return Config{}, nil
}

// Gateway is the bogus backend.
type Gateway struct {
	logger      *zap.Logger
	diagnostics io.Writer
	ops         ports.OperationTable
}

// New creates a bogus backend.
func New(_ Config, deps ports.BackendDeps) *Gateway {
	g := &Gateway{logger: deps.Logger, diagnostics: deps.Diagnostics}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.diagnostics == nil {
		g.diagnostics = io.Discard
	}

	g.ops = ports.OperationTable{
		domain.OperationAuthorize: {
			Params: []ports.Param{ports.Required("money"), ports.Required("paysource"), ports.Optional("options")},
			Invoke: g.authorize,
		},
		domain.OperationPurchase: {
			Params: []ports.Param{ports.Required("money"), ports.Required("paysource"), ports.Optional("options")},
			Invoke: g.purchase,
		},
		domain.OperationCapture: {
			Params: []ports.Param{ports.Required("money"), ports.Required("reference"), ports.Optional("options")},
			Invoke: g.capture,
		},
		domain.OperationRefund: {
			Params: []ports.Param{ports.Required("money"), ports.Required("reference"), ports.Optional("options")},
			Invoke: g.refund,
		},
		domain.OperationVoid: {
			Params: []ports.Param{ports.Required("reference"), ports.Optional("options")},
			Invoke: g.void,
		},
		domain.OperationStore: {
			Params: []ports.Param{ports.Required("paysource"), ports.Optional("options")},
			Invoke: g.store,
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
	return g.bySource("authorize", args, 1)
}

func (g *Gateway) purchase(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.bySource("purchase", args, 1)
}

func (g *Gateway) store(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.bySource("store", args, 0)
}

func (g *Gateway) capture(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.byReference("capture", args.String(1))
}

func (g *Gateway) refund(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.byReference("refund", args.String(1))
}

func (g *Gateway) void(ctx context.Context, args ports.Args) (*domain.Result, error) {
	return g.byReference("void", args.String(0))
}

func (g *Gateway) unstore(ctx context.Context, args ports.Args) (*domain.Result, error) {
	reference := args.String(0)
	fmt.Fprintf(g.diagnostics, "bogus unstore reference=%q\n", reference)

	switch reference {
	case "1":
		return success(), nil
	case "2":
		return failure(), nil
	default:
		return nil, domain.NewBackendError(unstoreErrorMessage)
	}
}

// bySource forces the outcome from the card number or stored reference at position i.
func (g *Gateway) bySource(action string, args ports.Args, i int) (*domain.Result, error) {
	source, err := args.Source(i)
	if err != nil {
		return nil, err
	}

	id := source.Identifier()
	fmt.Fprintf(g.diagnostics, "bogus %s source=%q reference=%t\n", action, id, source.IsReference())

	switch id {
	case "1":
		return success(), nil
	case "2":
		return failure(), nil
	default:
		return nil, domain.NewBackendError(sourceErrorMessage)
	}
}

// byReference forces the outcome of a follow-up transaction from the authorization.
func (g *Gateway) byReference(action, reference string) (*domain.Result, error) {
	fmt.Fprintf(g.diagnostics, "bogus %s reference=%q\n", action, reference)

	switch reference {
	case "1":
		return nil, domain.NewBackendError(referenceErrorMessage)
	case "2":
		return failure(), nil
	default:
		return success(), nil
	}
}

func success() *domain.Result {
	return &domain.Result{
		Success:       true,
		Test:          true,
		Message:       successMessage,
		Authorization: Authorization,
	}
}

func failure() *domain.Result {
	return &domain.Result{
		Success: false,
		Test:    true,
		Message: failureMessage,
	}
}
