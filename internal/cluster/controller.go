package cluster

import (
	"log/slog"

	"github.com/UnknownOlympus/clusterview/internal/metrics"
	"github.com/UnknownOlympus/clusterview/internal/models"
)

// DefaultZoomThreshold is the zoom level at and below which a group is collapsed.
const DefaultZoomThreshold = 7.0

// Controller drives a Group from the host's camera-change and map-ready notifications.
//
// A zoom at or below the threshold collapses the group and a zoom above it expands the group.
// Every other notification only refreshes the screen positions.
type Controller struct {
	log         *slog.Logger     // Logger for controller events
	group       *Group           // Group driven by camera changes
	threshold   float64          // Zoom level at and below which the group is collapsed
	metrics     *metrics.Metrics // Metrics for camera change tracking
	unsubscribe []func()         // Listener removals registered by Attach
}

// NewController creates a controller for group. It is not registered with any host until
// Attach is called.
func NewController(log *slog.Logger, group *Group, threshold float64, metrics *metrics.Metrics) *Controller {
	return &Controller{
		log:       log.With("group", group.Name()),
		group:     group,
		threshold: threshold,
		metrics:   metrics,
	}
}

// Threshold returns the configured zoom threshold.
func (c *Controller) Threshold() float64 { return c.threshold }

// Group returns the controlled group.
func (c *Controller) Group() *Group { return c.group }

// Attach registers the controller's listeners with host. They stay registered until Close.
func (c *Controller) Attach(host Host) {
	c.unsubscribe = append(c.unsubscribe,
		host.SubscribeMapReady(c.OnMapReady),
		host.SubscribeCameraChange(c.OnCameraChange),
	)
}

// OnMapReady passes the now usable projection to the group.
func (c *Controller) OnMapReady(projection Projection) {
	c.log.Info("Map is ready, placing cluster")
	c.group.Ready(projection)
}

// OnCameraChange evaluates the zoom threshold for snapshot. It may arrive before OnMapReady,
// in which case the group buffers the request.
func (c *Controller) OnCameraChange(snapshot models.CameraSnapshot) {
	c.metrics.CameraChanges.Inc()

	intent := c.group.Intent()

	switch {
	case snapshot.Zoom <= c.threshold && intent != Collapsed:
		c.log.Debug("Collapsing cluster", "zoom", snapshot.Zoom, "threshold", c.threshold)
		c.group.Collapse()
	case snapshot.Zoom > c.threshold && intent != Expanded:
		c.log.Debug("Expanding cluster", "zoom", snapshot.Zoom, "threshold", c.threshold)
		c.group.Expand()
	default:
		c.group.RecomputePositions()
	}
}

// Close removes the listeners registered by Attach and tears the group down.
func (c *Controller) Close() {
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
	c.group.Close()
}
