package mapview

import (
	"log/slog"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/geometry"
	"github.com/UnknownOlympus/clusterview/internal/models"
)

// Change is the kind of map change a View reports to its camera listeners.
type Change string

// Map changes after which overlays have to be re-placed.
const (
	RegionIsChanging Change = "region_is_changing"
	RegionDidChange  Change = "region_did_change"
	DidFinishLoading Change = "did_finish_loading_map"
)

// View is a headless map view. It implements cluster.Host and, once loaded, cluster.Projection.
// Every method must be called on the view's loop.
type View struct {
	log      *slog.Logger
	loop     *Loop
	viewport Viewport
	camera   models.CameraSnapshot
	loaded   bool

	nextID          int
	readyListeners  map[int]func(cluster.Projection)
	cameraListeners map[int]func(models.CameraSnapshot)
}

// NewView creates a view that is not loaded yet. Camera changes are delivered to listeners
// right away, but the view only works as a projection after FinishLoading.
func NewView(log *slog.Logger, loop *Loop, viewport Viewport, camera models.CameraSnapshot) *View {
	return &View{
		log:             log,
		loop:            loop,
		viewport:        viewport,
		camera:          NormalizeCamera(camera),
		readyListeners:  make(map[int]func(cluster.Projection)),
		cameraListeners: make(map[int]func(models.CameraSnapshot)),
	}
}

// Loop returns the loop every call on the view must be made from.
func (v *View) Loop() *Loop { return v.loop }

// Camera returns the current, normalized camera.
func (v *View) Camera() models.CameraSnapshot { return v.camera }

// Loaded reports whether FinishLoading was called.
func (v *View) Loaded() bool { return v.loaded }

// NewLabel creates a label drawn on this view.
func (v *View) NewLabel(text string) *Label {
	return NewLabel(v.loop, text)
}

// SubscribeMapReady registers fn for the map-ready signal. A view that has already finished
// loading calls fn immediately.
func (v *View) SubscribeMapReady(fn func(cluster.Projection)) func() {
	v.nextID++
	id := v.nextID
	v.readyListeners[id] = fn

	if v.loaded {
		fn(v)
	}

	return func() { delete(v.readyListeners, id) }
}

// SubscribeCameraChange registers fn for camera changes.
func (v *View) SubscribeCameraChange(fn func(models.CameraSnapshot)) func() {
	v.nextID++
	id := v.nextID
	v.cameraListeners[id] = fn

	return func() { delete(v.cameraListeners, id) }
}

// FinishLoading makes the projection available, signals map-ready and reports the current
// camera once more so overlays are placed.
func (v *View) FinishLoading() {
	if v.loaded {
		return
	}
	v.loaded = true

	v.log.Info("Map finished loading",
		"viewport_width", v.viewport.Width,
		"viewport_height", v.viewport.Height,
	)

	for _, fn := range v.sortedReady() {
		fn(v)
	}
	v.notify(DidFinishLoading)
}

// MoveCamera jumps the camera to camera and notifies the listeners twice, while the
// region is changing and once it did change, as a renderer does at the end of a move.
func (v *View) MoveCamera(camera models.CameraSnapshot) {
	v.camera = NormalizeCamera(camera)
	v.notify(RegionIsChanging)
	v.notify(RegionDidChange)
}

// Resize changes the viewport. A zero-sized viewport makes the projection unusable.
func (v *View) Resize(viewport Viewport) {
	v.viewport = viewport
	v.notify(RegionDidChange)
}

// ToScreenLocation projects point through the current camera.
func (v *View) ToScreenLocation(point models.GeoPoint) (models.ScreenPoint, error) {
	if !v.loaded {
		return models.ScreenPoint{}, cluster.ErrProjectionNotReady
	}

	return NewMercatorProjection(v.camera, v.viewport).ToScreenLocation(point)
}

func (v *View) notify(change Change) {
	v.log.Debug("Map changed",
		"change", change,
		"zoom", geometry.Round(v.camera.Zoom, 2),
		"lat", geometry.Round(v.camera.Target.Latitude, 6),
		"lon", geometry.Round(v.camera.Target.Longitude, 6),
	)

	for _, fn := range v.sortedCamera() {
		fn(v.camera)
	}
}

// sortedReady returns the listeners in registration order.
func (v *View) sortedReady() []func(cluster.Projection) {
	listeners := make([]func(cluster.Projection), 0, len(v.readyListeners))
	for id := 1; id <= v.nextID; id++ {
		if fn, ok := v.readyListeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}

	return listeners
}

func (v *View) sortedCamera() []func(models.CameraSnapshot) {
	listeners := make([]func(models.CameraSnapshot), 0, len(v.cameraListeners))
	for id := 1; id <= v.nextID; id++ {
		if fn, ok := v.cameraListeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}

	return listeners
}
