package ports

import (
	"context"
	"fmt"
	"io"

	"github.com/kevin07696/payment-bridge/internal/domain"
	"go.uber.org/zap"
)

// Param is one native positional parameter of a backend operation.
type Param struct {
	Name     string
	Optional bool
}

// Required declares a positional parameter that must be bound.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a positional parameter that may be left empty.
func Optional(name string) Param {
	return Param{Name: name, Optional: true}
}

// Args are the positional values bound for one backend call.
// An unbound optional position holds nil.
type Args []interface{}

// Money returns the amount bound at position i.
func (a Args) Money(i int) (int64, error) {
	if i >= len(a) || a[i] == nil {
		return 0, domain.MissingParameter("money")
	}
	switch v := a[i].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("position %d: expected money, got %T", i, a[i])
	}
}

// Source returns the payment source bound at position i.
func (a Args) Source(i int) (domain.PaymentSource, error) {
	if i >= len(a) || a[i] == nil {
		return domain.PaymentSource{}, domain.MissingParameter("credit_card")
	}
	switch v := a[i].(type) {
	case domain.PaymentSource:
		return v, nil
	case *domain.CreditCard:
		return domain.PaymentSource{Card: v}, nil
	case string:
		return domain.PaymentSource{Reference: v}, nil
	default:
		return domain.PaymentSource{}, fmt.Errorf("position %d: expected payment source, got %T", i, a[i])
	}
}

// String returns the string bound at position i, or "" when unbound.
func (a Args) String(i int) string {
	if i >= len(a) || a[i] == nil {
		return ""
	}
	if s, ok := a[i].(string); ok {
		return s
	}
	return ""
}

// Options returns the options bound at position i, or empty options when unbound.
func (a Args) Options(i int) domain.Options {
	if i >= len(a) || a[i] == nil {
		return domain.Options{Values: map[string]interface{}{}}
	}
	if o, ok := a[i].(domain.Options); ok {
		return o
	}
	return domain.Options{Values: map[string]interface{}{}}
}

// NativeOperation is a backend's own signature for one canonical operation.
type NativeOperation struct {
	Params []Param
	Invoke func(ctx context.Context, args Args) (*domain.Result, error)
}

// OperationTable maps each supported canonical operation to its native form.
type OperationTable map[domain.Operation]NativeOperation

// Supported returns the table's operations in canonical order.
func (t OperationTable) Supported() []domain.Operation {
	ops := make([]domain.Operation, 0, len(t))
	for _, op := range domain.Operations {
		if _, ok := t[op]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// Backend is a configured payment backend.
type Backend interface {
	// Family names the backend module, e.g. "bogus" or "orbital".
	Family() string
	Operations() OperationTable
}

// BackendDeps are the collaborators every backend constructor receives.
type BackendDeps struct {
	Logger *zap.Logger
	// Diagnostics receives anything a backend would otherwise print.
	Diagnostics io.Writer
	HTTPClient  HTTPClient
}
