package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value   string // The secret value (e.g., a gateway password)
	Version string // Secret version identifier
}

// SecretManager defines the port for reading secrets referenced from gateway params
// Supports multiple backends: local filesystem, AWS Secrets Manager, HashiCorp Vault
// Implementations cache secrets with a TTL.
type SecretManager interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - Local: relative file path under the base directory
	//   - AWS: "payment-bridge/gateways/{name}/password" or full ARN
	//   - Vault: KV v2 path under the configured mount
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
