package adapters

import (
	"errors"
	"testing"

	"github.com/smallbiznis/clubos/internal/payment/adapters/mercadopago"
	"github.com/smallbiznis/clubos/internal/payment/adapters/stripe"
	"github.com/smallbiznis/clubos/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingFactory struct{}

func (failingFactory) Provider() string { return " Broken " }

func (failingFactory) NewAdapter(domain.AdapterConfig) (domain.Normalizer, error) {
	return nil, domain.ErrInvalidConfig
}

func TestRegistryBuildsEveryProvider(t *testing.T) {
	registry := NewRegistry(stripe.NewFactory(nil), nil, mercadopago.NewFactory(nil))
	assert.Equal(t, []string{domain.ProviderMercadoPago, domain.ProviderStripe}, registry.Providers())

	normalizers, err := registry.Build(map[string]domain.AdapterConfig{
		domain.ProviderStripe: {Config: map[string]any{"webhook_secret": "whsec_test"}},
	})
	require.NoError(t, err)
	require.Len(t, normalizers, 2)
	assert.Equal(t, domain.ProviderStripe, normalizers[domain.ProviderStripe].Provider())
	assert.Equal(t, domain.ProviderMercadoPago, normalizers[domain.ProviderMercadoPago].Provider())
}

func TestRegistryBuildReportsFactoryErrors(t *testing.T) {
	registry := NewRegistry(failingFactory{})
	assert.Equal(t, []string{"broken"}, registry.Providers())

	_, err := registry.Build(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestNilRegistryHasNoProviders(t *testing.T) {
	var registry *Registry
	assert.Empty(t, registry.Providers())

	normalizers, err := registry.Build(nil)
	require.NoError(t, err)
	assert.Empty(t, normalizers)
}
