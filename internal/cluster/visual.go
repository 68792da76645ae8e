// Package cluster implements the marker-clustering state machine: a Group that shows either a
// parent marker or its members, and a Controller that drives the group from camera changes.
//
// All types in this package are meant to be used from the single thread that delivers camera
// changes, map-ready signals and animation completions. They do no locking.
package cluster

import (
	"errors"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/models"
)

// ErrProjectionNotReady is returned by a Projection that cannot convert coordinates yet.
var ErrProjectionNotReady = errors.New("projection is not ready")

// Projection converts a geographic coordinate to a screen coordinate for the current camera.
// It is owned by the host map view.
type Projection interface {
	ToScreenLocation(point models.GeoPoint) (models.ScreenPoint, error)
}

// Visual is the capability a displayable marker offers to the group.
// AnimateTo and FadeTo are fire-and-forget: onComplete is invoked later, exactly once,
// on the same thread that delivers camera changes.
type Visual interface {
	SetPosition(p models.ScreenPoint)
	SetVisible(visible bool)
	SetOpacity(alpha float64)
	AnimateTo(p models.ScreenPoint, d time.Duration, onComplete func())
	FadeTo(alpha float64, d time.Duration, onComplete func())
}

// Host is the map view a Controller registers with. Each Subscribe call returns a function
// that removes the listener again.
type Host interface {
	SubscribeMapReady(fn func(Projection)) (unsubscribe func())
	SubscribeCameraChange(fn func(models.CameraSnapshot)) (unsubscribe func())
}
