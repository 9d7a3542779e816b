// Package reconcile binds a canonical parameter bag onto the positional
// parameters a backend declares for one operation.
package reconcile

import (
	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/domain"
)

// Role is a canonical parameter role.
type Role string

const (
	RoleMoney         Role = "money"
	RoleCreditCard    Role = "credit_card"
	RoleAuthorization Role = "authorization"
	RoleOptions       Role = "options"
)

// roleAliases lists, per role, the native parameter names it can fill.
// Roles are tried in this order; alias lists must not overlap.
var roleAliases = []struct {
	role    Role
	aliases []string
}{
	{RoleMoney, []string{"money", "amount"}},
	{RoleCreditCard, []string{"credit_card", "creditcard", "paysource", "payment_source", "source", "payment_method", "creditcard_or_reference"}},
	{RoleAuthorization, []string{"authorization", "identification", "reference", "transaction_id"}},
	{RoleOptions, []string{"options"}},
}

var canonicalRoles = map[domain.Operation][]Role{
	domain.OperationAuthorize: {RoleMoney, RoleCreditCard, RoleOptions},
	domain.OperationPurchase:  {RoleMoney, RoleCreditCard, RoleOptions},
	domain.OperationCapture:   {RoleMoney, RoleAuthorization, RoleOptions},
	domain.OperationRefund:    {RoleMoney, RoleAuthorization, RoleOptions},
	domain.OperationVoid:      {RoleAuthorization, RoleOptions},
	domain.OperationRetrieve:  {RoleAuthorization, RoleOptions},
	domain.OperationUnstore:   {RoleAuthorization, RoleOptions},
	domain.OperationStore:     {RoleCreditCard, RoleOptions},
	domain.OperationUpdate:    {RoleAuthorization, RoleCreditCard, RoleOptions},
}

// CanonicalRoles returns the roles an operation takes, in canonical order.
func CanonicalRoles(op domain.Operation) []Role {
	return canonicalRoles[op]
}

// Takes reports whether op has the given role among its canonical parameters.
func Takes(op domain.Operation, role Role) bool {
	for _, r := range canonicalRoles[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Aliases returns the native names a role can fill, in declared order.
func Aliases(role Role) []string {
	for _, ra := range roleAliases {
		if ra.role == role {
			return ra.aliases
		}
	}
	return nil
}

// RoleFor returns the first role whose alias list contains name.
func RoleFor(name string) (Role, bool) {
	for _, ra := range roleAliases {
		for _, alias := range ra.aliases {
			if alias == name {
				return ra.role, true
			}
		}
	}
	return "", false
}

// Bag maps canonical roles to the values gathered for one request.
// A role that is absent or nil is unbound.
type Bag map[Role]interface{}

// Bind walks params in order and fills each position from the bag.
// An unresolvable optional position is left nil; an unresolvable required
// position fails with a missing-parameter error naming the role.
func Bind(params []ports.Param, bag Bag) (ports.Args, error) {
	args := make(ports.Args, len(params))
	for i, p := range params {
		role, ok := RoleFor(p.Name)
		if !ok {
			if p.Optional {
				continue
			}
			return nil, domain.MissingParameter(p.Name)
		}

		value, ok := bag[role]
		if !ok || value == nil {
			if p.Optional {
				continue
			}
			return nil, domain.MissingParameter(string(role))
		}
		args[i] = value
	}
	return args, nil
}
