package cluster_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/metrics"
	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// animator collects completion callbacks so tests decide when animations end.
type animator struct {
	queue []func()
}

// flushOnce completes the animations started so far and returns how many it completed.
func (a *animator) flushOnce() int {
	batch := a.queue
	a.queue = nil
	for _, fn := range batch {
		fn()
	}

	return len(batch)
}

// flush completes animations until none are left, including ones started by completions.
func (a *animator) flush() int {
	total := 0
	for len(a.queue) > 0 {
		total += a.flushOnce()
	}

	return total
}

type fakeVisual struct {
	anim     *animator
	position models.ScreenPoint
	visible  bool
	opacity  float64
	animated int
}

func newFakeVisual(anim *animator) *fakeVisual {
	return &fakeVisual{anim: anim}
}

func (v *fakeVisual) SetPosition(p models.ScreenPoint) { v.position = p }

func (v *fakeVisual) SetVisible(visible bool) { v.visible = visible }

func (v *fakeVisual) SetOpacity(alpha float64) { v.opacity = alpha }

func (v *fakeVisual) AnimateTo(p models.ScreenPoint, _ time.Duration, onComplete func()) {
	v.animated++
	v.anim.queue = append(v.anim.queue, func() {
		v.position = p
		onComplete()
	})
}

func (v *fakeVisual) FadeTo(alpha float64, _ time.Duration, onComplete func()) {
	v.animated++
	v.anim.queue = append(v.anim.queue, func() {
		v.opacity = alpha
		onComplete()
	})
}

// fakeProjection maps longitude and latitude linearly onto the screen.
type fakeProjection struct {
	ready   bool
	offsetX float64
}

func (p *fakeProjection) ToScreenLocation(point models.GeoPoint) (models.ScreenPoint, error) {
	if !p.ready {
		return models.ScreenPoint{}, cluster.ErrProjectionNotReady
	}

	return models.ScreenPoint{X: point.Longitude*100 + p.offsetX, Y: -point.Latitude * 100}, nil
}

type fakeHost struct {
	ready  map[int]func(cluster.Projection)
	camera map[int]func(models.CameraSnapshot)
	nextID int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		ready:  map[int]func(cluster.Projection){},
		camera: map[int]func(models.CameraSnapshot){},
	}
}

func (h *fakeHost) SubscribeMapReady(fn func(cluster.Projection)) func() {
	h.nextID++
	id := h.nextID
	h.ready[id] = fn

	return func() { delete(h.ready, id) }
}

func (h *fakeHost) SubscribeCameraChange(fn func(models.CameraSnapshot)) func() {
	h.nextID++
	id := h.nextID
	h.camera[id] = fn

	return func() { delete(h.camera, id) }
}

func (h *fakeHost) mapReady(p cluster.Projection) {
	for _, fn := range h.ready {
		fn(p)
	}
}

func (h *fakeHost) moveCamera(zoom float64) {
	for _, fn := range h.camera {
		fn(models.CameraSnapshot{Zoom: zoom})
	}
}

type fixture struct {
	anim      *animator
	parent    *fakeVisual
	visuals   []*fakeVisual
	group     *cluster.Group
	metrics   *metrics.Metrics
	settled   []cluster.State
	proj      *fakeProjection
	anchor    models.GeoPoint
	locations []models.GeoPoint
}

var (
	anchorPoint  = models.GeoPoint{Latitude: 51.502615, Longitude: 4.972326}
	memberPoints = []models.GeoPoint{
		{Latitude: 50.861592, Longitude: 4.359965}, // Brussel
		{Latitude: 52.090432, Longitude: 5.122310}, // Utrecht
		{Latitude: 50.851274, Longitude: 5.694722}, // Maastricht
	}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(members int, initial cluster.State) *fixture {
	fx := &fixture{
		anim:    &animator{},
		metrics: metrics.NewMetrics(prometheus.NewRegistry()),
		proj:    &fakeProjection{ready: true},
		anchor:  anchorPoint,
	}
	fx.parent = newFakeVisual(fx.anim)

	clusterMembers := make([]*cluster.Member, 0, members)
	for i := range members {
		visual := newFakeVisual(fx.anim)
		location := memberPoints[i%len(memberPoints)]
		fx.visuals = append(fx.visuals, visual)
		fx.locations = append(fx.locations, location)
		clusterMembers = append(clusterMembers, cluster.NewMember(string(rune('a'+i)), location, visual))
	}

	group, err := cluster.NewGroup(discardLogger(), fx.metrics, cluster.GroupConfig{
		Name:         "benelux",
		Anchor:       fx.anchor,
		Parent:       fx.parent,
		Members:      clusterMembers,
		InitialState: initial,
		OnSettled: func(state cluster.State) {
			fx.settled = append(fx.settled, state)
		},
	})
	if err != nil {
		panic(err)
	}
	fx.group = group

	return fx
}

func (fx *fixture) screen(point models.GeoPoint) models.ScreenPoint {
	p, _ := fx.proj.ToScreenLocation(point)
	return p
}

func (fx *fixture) visibleMembers() int {
	count := 0
	for _, v := range fx.visuals {
		if v.visible {
			count++
		}
	}

	return count
}
