package secrets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"go.uber.org/zap"
)

// ReferencePrefix marks a gateway param value that names a secret instead of holding it.
const ReferencePrefix = "secret://"

// Provider names accepted by New
const (
	ProviderNone  = "none"
	ProviderLocal = "local"
	ProviderAWS   = "aws"
	ProviderVault = "vault"
)

// Options selects and configures the secret manager.
type Options struct {
	Provider  string
	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress   string
	VaultToken     string
	VaultMount     string
	VaultNamespace string

	CacheTTL time.Duration
}

// New builds the configured secret manager. ProviderNone (or "") returns nil.
func New(ctx context.Context, opts Options, logger *zap.Logger) (ports.SecretManager, error) {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	switch opts.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderLocal:
		if opts.LocalPath == "" {
			return nil, fmt.Errorf("local secret provider requires a base path")
		}
		return NewLocalSecretManager(opts.LocalPath, logger), nil
	case ProviderAWS:
		cfg := DefaultAWSSecretsManagerConfig(opts.AWSRegion)
		cfg.Profile = opts.AWSProfile
		cfg.Endpoint = opts.AWSEndpoint
		cfg.CacheTTL = ttl
		return NewAWSSecretsManagerAdapter(ctx, cfg, logger)
	case ProviderVault:
		cfg := DefaultVaultConfig(opts.VaultAddress)
		cfg.Token = opts.VaultToken
		cfg.Namespace = opts.VaultNamespace
		if opts.VaultMount != "" {
			cfg.MountPath = opts.VaultMount
		}
		cfg.CacheTTL = ttl
		return NewVaultAdapter(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets provider: %s", opts.Provider)
	}
}

// IsReference reports whether value names a secret.
func IsReference(value string) bool {
	return strings.HasPrefix(value, ReferencePrefix)
}

// Resolve returns value unchanged unless it is a secret reference, in which case the
// referenced secret is fetched. A reference without a manager is an error.
func Resolve(ctx context.Context, manager ports.SecretManager, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	path := strings.TrimPrefix(value, ReferencePrefix)
	if path == "" {
		return "", fmt.Errorf("empty secret reference")
	}
	if manager == nil {
		return "", fmt.Errorf("secret reference %q used but no secrets provider is configured", path)
	}

	secret, err := manager.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

// ResolveAll resolves every secret reference in params, returning a new map.
func ResolveAll(ctx context.Context, manager ports.SecretManager, params map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(params))
	for k, v := range params {
		resolved, err := Resolve(ctx, manager, v)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}
