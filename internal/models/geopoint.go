package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/UnknownOlympus/clusterview/internal/geometry"
)

const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
)

// ErrInvalidCoordinate is returned when a geographic point cannot be represented.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// GeoPoint represents a geographical point defined by its latitude and longitude in degrees.
// Latitude lies in [-90, 90] and longitude is normalized into [-180, 180).
type GeoPoint struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// NewGeoPoint validates the latitude and wraps the longitude into [-180, 180).
// It returns an error wrapping ErrInvalidCoordinate when the latitude is out of range
// or when either value is not finite.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return GeoPoint{}, fmt.Errorf("%w: non-finite value (lat=%v, lon=%v)", ErrInvalidCoordinate, lat, lon)
	}

	if lat < minLatitude || lat > maxLatitude {
		return GeoPoint{}, fmt.Errorf("%w: latitude %v is outside [%v, %v]",
			ErrInvalidCoordinate, lat, minLatitude, maxLatitude)
	}

	return GeoPoint{
		Latitude:  lat,
		Longitude: geometry.Wrap(lon, minLongitude, maxLongitude),
	}, nil
}

// String formats the point as "lat,lon" with six decimals.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}
