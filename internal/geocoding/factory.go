package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType names a geocoding backend.
type ProviderType string

const (
	// ProviderTypeGoogle is the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim is the OpenStreetMap Nominatim API.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// DefaultNominatimRateLimit is the request rate allowed by the public Nominatim usage policy.
const DefaultNominatimRateLimit = 1

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (Google only)
	RateLimit int          // Requests per second, 0 keeps the provider default
	Region    string       // ccTLD used to bias results, e.g. "nl"
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates the geocoding provider selected by config.Type.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (no API key, rate limited)
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Region, config.Logger), nil
}

func newNominatimProvider(config ProviderConfig) Provider {
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultNominatimRateLimit
		config.Logger.Debug("Rate limit for Nominatim not set, using default", "value", config.RateLimit)
	}

	return NewNominatimProvider(config.RateLimit, config.Region, config.Logger)
}
