// Package registry builds the configured backends once at startup and resolves
// gateway names to them for the lifetime of the process.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kevin07696/payment-bridge/internal/adapters/authnetcim"
	"github.com/kevin07696/payment-bridge/internal/adapters/bogus"
	"github.com/kevin07696/payment-bridge/internal/adapters/orbital"
	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/adapters/secrets"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"go.uber.org/zap"
)

// Gateway statuses
const (
	StatusConfigured   = "configured"
	StatusUnconfigured = "unconfigured"
)

// GatewayConfig is one entry of the startup configuration.
type GatewayConfig struct {
	Name   string `json:"name"`
	Module string `json:"module"`
	Params Params `json:"params"`
}

// Params are a module's configuration values. JSON numbers and booleans are
// accepted and kept in their text form.
type Params map[string]string

// UnmarshalJSON accepts any JSON scalar as a param value.
func (p *Params) UnmarshalJSON(b []byte) error {
	var values domain.FormData
	if err := json.Unmarshal(b, &values); err != nil {
		return err
	}
	*p = Params(values)
	return nil
}

// ParseConfiguration decodes a JSON array of gateway entries. Blank input is an empty configuration.
func ParseConfiguration(payload string) ([]GatewayConfig, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}
	var configs []GatewayConfig
	if err := json.Unmarshal([]byte(payload), &configs); err != nil {
		return nil, fmt.Errorf("parse gateway configuration: %w", err)
	}
	return configs, nil
}

type factory func(params map[string]string, deps ports.BackendDeps) (ports.Backend, error)

// modules is the closed set of backend families a configuration may name.
var modules = map[string]factory{
	bogus.Family: func(params map[string]string, deps ports.BackendDeps) (ports.Backend, error) {
		cfg, err := bogus.ParseConfig(params)
		if err != nil {
			return nil, err
		}
		return bogus.New(cfg, deps), nil
	},
	authnetcim.Family: func(params map[string]string, deps ports.BackendDeps) (ports.Backend, error) {
		cfg, err := authnetcim.ParseConfig(params)
		if err != nil {
			return nil, err
		}
		g, err := authnetcim.New(cfg, deps)
		if err != nil {
			return nil, err
		}
		return g, nil
	},
	orbital.Family: func(params map[string]string, deps ports.BackendDeps) (ports.Backend, error) {
		cfg, err := orbital.ParseConfig(params)
		if err != nil {
			return nil, err
		}
		g, err := orbital.New(cfg, deps)
		if err != nil {
			return nil, err
		}
		return g, nil
	},
}

// Modules returns the module names a configuration may use, sorted.
func Modules() []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gateway describes one configured gateway name.
type Gateway struct {
	Name             string             `json:"name"`
	Module           string             `json:"module"`
	Status           string             `json:"status"`
	SupportedActions []domain.Operation `json:"supported_actions"`
}

type entry struct {
	module string
	// nil when the module is unknown
	backend ports.Backend
}

// Registry maps gateway names to backends. It is read-only once built.
type Registry struct {
	entries map[string]entry
	order   []string
}

// New builds every configured backend. Secret references in params are resolved
// through secretManager first. An unknown module leaves its name unconfigured;
// a known module with invalid params fails the whole build.
func New(ctx context.Context, configs []GatewayConfig, secretManager ports.SecretManager, deps ports.BackendDeps, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{entries: make(map[string]entry, len(configs))}

	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("gateway configuration entry %d has no name", i)
		}
		if _, dup := r.entries[cfg.Name]; dup {
			logger.Warn("Gateway configured more than once, later entry wins", zap.String("gateway", cfg.Name))
		} else {
			r.order = append(r.order, cfg.Name)
		}

		build, known := modules[cfg.Module]
		if !known {
			logger.Warn("Unknown gateway module, gateway left unconfigured",
				zap.String("gateway", cfg.Name),
				zap.String("module", cfg.Module),
			)
			r.entries[cfg.Name] = entry{module: cfg.Module}
			continue
		}

		params, err := secrets.ResolveAll(ctx, secretManager, cfg.Params)
		if err != nil {
			return nil, fmt.Errorf("gateway %s: %w", cfg.Name, err)
		}

		backendDeps := deps
		if backendDeps.Logger == nil {
			backendDeps.Logger = logger
		}
		backendDeps.Logger = backendDeps.Logger.With(zap.String("gateway", cfg.Name))

		backend, err := build(params, backendDeps)
		if err != nil {
			return nil, fmt.Errorf("gateway %s (%s): %w", cfg.Name, cfg.Module, err)
		}
		r.entries[cfg.Name] = entry{module: cfg.Module, backend: backend}

		logger.Info("Gateway configured",
			zap.String("gateway", cfg.Name),
			zap.String("module", cfg.Module),
			zap.Int("operations", len(backend.Operations())),
		)
	}

	return r, nil
}

// Resolve returns the backend configured under name. Unknown and unconfigured names both report false.
func (r *Registry) Resolve(name string) (ports.Backend, bool) {
	e, ok := r.entries[name]
	if !ok || e.backend == nil {
		return nil, false
	}
	return e.backend, true
}

// Capabilities returns the operations backend supports, in canonical order.
func (r *Registry) Capabilities(backend ports.Backend) []domain.Operation {
	return backend.Operations().Supported()
}

// Gateways lists every configured name in configuration order.
func (r *Registry) Gateways() []Gateway {
	out := make([]Gateway, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		gw := Gateway{Name: name, Module: e.module, Status: StatusUnconfigured}
		if e.backend != nil {
			gw.Status = StatusConfigured
			gw.SupportedActions = r.Capabilities(e.backend)
		}
		out = append(out, gw)
	}
	return out
}

// GatewayStatus reports each name's status for the health check.
func (r *Registry) GatewayStatus() map[string]string {
	status := make(map[string]string, len(r.entries))
	for _, gw := range r.Gateways() {
		status[gw.Name] = gw.Status
	}
	return status
}
