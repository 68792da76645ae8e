package mapview

import (
	"math"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/geometry"
	"github.com/UnknownOlympus/clusterview/internal/models"
)

// Camera and projection limits of the renderer.
const (
	TileSize            = 512.0
	MinZoom             = 0.0
	MaxZoom             = 25.5
	MaxTilt             = 60.0
	MaxMercatorLatitude = 85.051128779806604
)

// Viewport is the size of the map view in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// MercatorProjection projects through a fixed camera onto a viewport.
// Tilt is not modeled: the view is projected as if looking straight down.
type MercatorProjection struct {
	camera   models.CameraSnapshot
	viewport Viewport
}

// NewMercatorProjection returns a projection for camera. The camera is used as given;
// see NormalizeCamera.
func NewMercatorProjection(camera models.CameraSnapshot, viewport Viewport) MercatorProjection {
	return MercatorProjection{camera: camera, viewport: viewport}
}

// ToScreenLocation returns the pixel position of point relative to the top-left corner of
// the viewport. Points are placed on the world copy closest to the camera target.
func (p MercatorProjection) ToScreenLocation(point models.GeoPoint) (models.ScreenPoint, error) {
	if p.viewport.Width <= 0 || p.viewport.Height <= 0 {
		return models.ScreenPoint{}, cluster.ErrProjectionNotReady
	}

	worldSize := TileSize * math.Pow(2, p.camera.Zoom)
	pointX, pointY := worldPixels(point, worldSize)
	centerX, centerY := worldPixels(p.camera.Target, worldSize)

	dx := geometry.Wrap(pointX-centerX, -worldSize/2, worldSize/2)
	dy := pointY - centerY

	angle := -p.camera.Bearing * math.Pi / 180
	sin, cos := math.Sincos(angle)

	return models.ScreenPoint{
		X: p.viewport.Width/2 + dx*cos - dy*sin,
		Y: p.viewport.Height/2 + dx*sin + dy*cos,
	}, nil
}

func worldPixels(point models.GeoPoint, worldSize float64) (float64, float64) {
	lat := geometry.Clamp(point.Latitude, -MaxMercatorLatitude, MaxMercatorLatitude)

	x := (180 + point.Longitude) / 360 * worldSize
	y := (180 - (180/math.Pi)*math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))) / 360 * worldSize

	return x, y
}

// NormalizeCamera clamps zoom, tilt and latitude to what the renderer supports and wraps
// longitude and bearing into [-180, 180).
func NormalizeCamera(camera models.CameraSnapshot) models.CameraSnapshot {
	return models.CameraSnapshot{
		Zoom: geometry.Clamp(camera.Zoom, MinZoom, MaxZoom),
		Target: models.GeoPoint{
			Latitude:  geometry.Clamp(camera.Target.Latitude, -MaxMercatorLatitude, MaxMercatorLatitude),
			Longitude: geometry.Wrap(camera.Target.Longitude, -180, 180),
		},
		Bearing: geometry.Wrap(camera.Bearing, -180, 180),
		Tilt:    geometry.Clamp(camera.Tilt, 0, MaxTilt),
	}
}
