package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kevin07696/payment-bridge/internal/adapters/authnetcim"
	"github.com/kevin07696/payment-bridge/internal/adapters/bogus"
	"github.com/kevin07696/payment-bridge/internal/adapters/orbital"
	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/adapters/secrets"
	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func build(t *testing.T, payload string, manager ports.SecretManager) (*Registry, error) {
	t.Helper()
	configs, err := ParseConfiguration(payload)
	require.NoError(t, err)
	return New(context.Background(), configs, manager, ports.BackendDeps{}, zap.NewNop())
}

func TestParseConfiguration(t *testing.T) {
	configs, err := ParseConfiguration(`[
		{"name":"cim","module":"authorize_net_cim","params":{"login":"l","password":"p","test":true}},
		{"name":"orb","module":"orbital","params":{"merchant_id":41756,"bin":"000002","note":null}}
	]`)

	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, Params{"login": "l", "password": "p", "test": "true"}, configs[0].Params)
	assert.Equal(t, Params{"merchant_id": "41756", "bin": "000002"}, configs[1].Params)
}

func TestParseConfiguration_Blank(t *testing.T) {
	configs, err := ParseConfiguration("  ")
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestParseConfiguration_Invalid(t *testing.T) {
	_, err := ParseConfiguration(`[{"name":"x","module":"bogus","params":{"nested":{"a":1}}}]`)
	assert.Error(t, err)

	_, err = ParseConfiguration(`{"name":"x"}`)
	assert.Error(t, err)
}

func TestNew_ResolvesConfiguredBackends(t *testing.T) {
	r, err := build(t, `[
		{"name":"test","module":"bogus"},
		{"name":"cim","module":"authorize_net_cim","params":{"login":"l","password":"p"}},
		{"name":"orb","module":"orbital","params":{"login":"u","password":"p","merchant_id":"m"}}
	]`, nil)
	require.NoError(t, err)

	for name, family := range map[string]string{"test": bogus.Family, "cim": authnetcim.Family, "orb": orbital.Family} {
		backend, ok := r.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, family, backend.Family())
	}

	backend, _ := r.Resolve("test")
	assert.Equal(t, []domain.Operation{
		domain.OperationAuthorize, domain.OperationCapture, domain.OperationPurchase,
		domain.OperationVoid, domain.OperationRefund, domain.OperationStore, domain.OperationUnstore,
	}, r.Capabilities(backend))

	_, ok := r.Resolve("missing")
	assert.False(t, ok)
}

func TestNew_UnknownModuleIsUnconfigured(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	configs, err := ParseConfiguration(`[{"name":"pp","module":"paypal"},{"name":"test","module":"bogus"}]`)
	require.NoError(t, err)

	r, err := New(context.Background(), configs, nil, ports.BackendDeps{}, zap.New(core))

	require.NoError(t, err)
	_, ok := r.Resolve("pp")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Unknown gateway module, gateway left unconfigured").Len())

	assert.Equal(t, []Gateway{
		{Name: "pp", Module: "paypal", Status: StatusUnconfigured},
		{Name: "test", Module: "bogus", Status: StatusConfigured, SupportedActions: bogus.New(bogus.Config{}, ports.BackendDeps{}).Operations().Supported()},
	}, r.Gateways())
	assert.Equal(t, map[string]string{"pp": StatusUnconfigured, "test": StatusConfigured}, r.GatewayStatus())
}

func TestNew_InvalidModuleConfigFailsStartup(t *testing.T) {
	_, err := build(t, `[{"name":"cim","module":"authorize_net_cim","params":{"login":"l"}}]`, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway cim (authorize_net_cim)")
	assert.Contains(t, err.Error(), "password is required")
}

func TestNew_EntryWithoutName(t *testing.T) {
	_, err := build(t, `[{"module":"bogus"}]`, nil)
	assert.EqualError(t, err, "gateway configuration entry 0 has no name")
}

func TestNew_LaterDuplicateWins(t *testing.T) {
	r, err := build(t, `[
		{"name":"gw","module":"paypal"},
		{"name":"gw","module":"bogus"}
	]`, nil)
	require.NoError(t, err)

	backend, ok := r.Resolve("gw")
	require.True(t, ok)
	assert.Equal(t, bogus.Family, backend.Family())
	assert.Len(t, r.Gateways(), 1)
}

func TestNew_ResolvesSecretReferences(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cim"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cim", "key"), []byte("s3cret\n"), 0o600))
	manager := secrets.NewLocalSecretManager(dir, zap.NewNop())

	r, err := build(t, `[{"name":"cim","module":"authorize_net_cim","params":{"login":"l","password":"secret://cim/key"}}]`, manager)

	require.NoError(t, err)
	_, ok := r.Resolve("cim")
	assert.True(t, ok)
}

func TestNew_SecretReferenceWithoutProvider(t *testing.T) {
	_, err := build(t, `[{"name":"cim","module":"authorize_net_cim","params":{"login":"l","password":"secret://cim/key"}}]`, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no secrets provider is configured")
}

func TestModules(t *testing.T) {
	assert.Equal(t, []string{"authorize_net_cim", "bogus", "orbital"}, Modules())
}
