package geocoding

import (
	"context"

	"github.com/UnknownOlympus/clusterview/internal/models"
)

// Provider resolves a free-form address or place name to a location.
// Implementations return a validated models.GeoPoint or an error.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.GeoPoint, error)
}
