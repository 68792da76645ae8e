package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/clusterview/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()
	logger := slog.Default()

	t.Run("create Google provider successfully", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 10,
			Region:    "nl",
			Logger:    logger,
		})

		require.NoError(t, err)
		assert.IsType(t, &geocoding.GoogleProvider{}, provider)
	})

	t.Run("create Google provider without rate limit", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeGoogle,
			APIKey: "test-api-key",
			Logger: logger,
		})

		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("create Google provider without API key fails", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeGoogle,
			Logger: logger,
		})

		require.ErrorContains(t, err, "API key is required for Google provider")
		require.Nil(t, provider)
	})

	t.Run("create Nominatim provider with default rate limit", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeNominatim,
			Logger: logger,
		})

		require.NoError(t, err)
		assert.IsType(t, &geocoding.NominatimProvider{}, provider)
	})

	t.Run("unsupported provider type", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderType("visicom"),
			Logger: logger,
		})

		require.ErrorContains(t, err, "unsupported provider type: visicom")
		require.Nil(t, provider)
	})

	t.Run("empty provider type", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{Logger: logger})

		require.ErrorContains(t, err, "unsupported provider type")
		require.Nil(t, provider)
	})
}
