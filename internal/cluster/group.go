package cluster

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/metrics"
	"github.com/UnknownOlympus/clusterview/internal/models"
)

// DefaultAnimationDuration is used when GroupConfig.Duration is zero.
const DefaultAnimationDuration = 300 * time.Millisecond

// Errors returned by NewGroup.
var (
	ErrNoParentVisual      = errors.New("cluster group requires a parent visual")
	ErrNoMemberVisual      = errors.New("cluster member requires a visual")
	ErrInvalidInitialState = errors.New("initial state must be collapsed or expanded")
)

// GroupConfig holds everything a Group is built from.
//
// Fields:
// - Name: Key used in logs.
// - Anchor: Fixed point at which the parent marker is drawn.
// - Parent: Visual of the collapsed representative.
// - Members: Ordered members of the group. Membership does not change afterwards.
// - Duration: Length of every member and parent animation (DefaultAnimationDuration if zero).
// - InitialState: Collapsed (the default) or Expanded.
// - OnSettled: Optional observer called once for every completed transition barrier.
type GroupConfig struct {
	Name         string
	Anchor       models.GeoPoint
	Parent       Visual
	Members      []*Member
	Duration     time.Duration
	InitialState State
	OnSettled    func(State)
}

// Group owns a parent marker and its members, and switches between showing one or the other.
//
// A transition is a barrier over N member animations plus the parent fade: the group only
// reaches its target state once every one of those N+1 completions has arrived. While a
// transition is in flight, a request for the same target is ignored and a request for the
// opposite target is queued and started once the barrier completes. Requests made before a
// projection is available are buffered the same way and replayed by Ready.
type Group struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	name      string
	anchor    models.GeoPoint
	parent    Visual
	members   []*Member
	duration  time.Duration
	onSettled func(State)
	now       func() time.Time

	projection    Projection
	state         State
	target        State // meaningful only while state == Transitioning
	pending       State
	hasPending    bool
	outstanding   int
	generation    uint64
	startedAt     time.Time
	parentVisible bool
	closed        bool
}

// NewGroup validates the configuration and returns a group with every visual hidden.
// Visuals are placed and shown once Ready supplies a projection.
func NewGroup(log *slog.Logger, metrics *metrics.Metrics, cfg GroupConfig) (*Group, error) {
	if cfg.Parent == nil {
		return nil, ErrNoParentVisual
	}

	for idx, member := range cfg.Members {
		if member == nil || member.visual == nil {
			return nil, fmt.Errorf("member %d: %w", idx, ErrNoMemberVisual)
		}
	}

	if cfg.InitialState != Collapsed && cfg.InitialState != Expanded {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInitialState, cfg.InitialState)
	}

	if cfg.Duration <= 0 {
		cfg.Duration = DefaultAnimationDuration
	}

	members := make([]*Member, len(cfg.Members))
	copy(members, cfg.Members)

	group := &Group{
		log:       log.With("group", cfg.Name),
		metrics:   metrics,
		name:      cfg.Name,
		anchor:    cfg.Anchor,
		parent:    cfg.Parent,
		members:   members,
		duration:  cfg.Duration,
		onSettled: cfg.OnSettled,
		now:       time.Now,
		state:     cfg.InitialState,
	}

	if group.state == Collapsed {
		group.parent.SetOpacity(1)
	} else {
		group.parent.SetOpacity(0)
	}
	group.parent.SetVisible(false)
	for _, member := range members {
		member.visual.SetVisible(false)
		member.visible = false
	}

	return group, nil
}

func (g *Group) Name() string { return g.name }

func (g *Group) Anchor() models.GeoPoint { return g.anchor }

// State returns the current state, Transitioning included.
func (g *Group) State() State { return g.state }

// Target returns the state an in-flight transition is heading to. The second value is false
// when no transition is in flight.
func (g *Group) Target() (State, bool) {
	return g.target, g.state == Transitioning
}

// Pending returns the request queued behind an in-flight transition or a missing projection.
func (g *Group) Pending() (State, bool) {
	return g.pending, g.hasPending
}

// Intent is the state the group will end up in once everything requested so far has run.
func (g *Group) Intent() State {
	switch {
	case g.hasPending:
		return g.pending
	case g.state == Transitioning:
		return g.target
	default:
		return g.state
	}
}

// Members returns the members in their configured order.
func (g *Group) Members() []*Member {
	members := make([]*Member, len(g.members))
	copy(members, g.members)

	return members
}

// Ready hands the group a usable projection. Visuals are placed for the settled state and any
// buffered request is replayed.
func (g *Group) Ready(projection Projection) {
	if g.closed || projection == nil {
		return
	}

	g.projection = projection

	if g.state == Transitioning {
		return
	}

	if err := g.place(); err != nil {
		g.log.Debug("Could not place cluster after map ready", "error", err)
	}

	g.replay()
}

// Expand requests the expanded state.
func (g *Group) Expand() { g.request(Expanded) }

// Collapse requests the collapsed state.
func (g *Group) Collapse() { g.request(Collapsed) }

// RecomputePositions keeps the anchor and the visible markers aligned with the camera
// without starting animations. It does nothing while a transition is in flight or before
// a projection is available. A request that was deferred because projecting failed is
// retried instead.
func (g *Group) RecomputePositions() {
	if g.closed || g.state == Transitioning || g.projection == nil {
		return
	}

	if g.hasPending {
		g.replay()
		return
	}

	if err := g.place(); err != nil {
		g.log.Debug("Could not refresh cluster positions", "error", err)
	}
}

// Close tears the group down. Completions still in flight are ignored afterwards.
func (g *Group) Close() {
	if g.closed {
		return
	}

	if g.state == Transitioning {
		g.metrics.ActiveAnimations.Sub(float64(g.outstanding))
	}

	g.closed = true
	g.hasPending = false
	g.projection = nil
	g.outstanding = 0

	g.parent.SetVisible(false)
	g.parentVisible = false
	for _, member := range g.members {
		member.show(false)
		member.animating = false
	}
	g.members = nil

	g.log.Debug("Cluster group closed")
}

func (g *Group) request(target State) {
	if g.closed {
		return
	}

	if g.state == Transitioning {
		if target == g.target {
			g.hasPending = false
			g.log.Debug("Ignoring request for the state already in flight", "target", target)
			return
		}
		g.deferRequest(target, "transitioning")
		return
	}

	if target == g.state {
		g.hasPending = false
		return
	}

	if g.projection == nil {
		g.deferRequest(target, "not_ready")
		return
	}

	g.begin(target)
}

func (g *Group) deferRequest(target State, reason string) {
	g.pending = target
	g.hasPending = true
	g.metrics.DeferredRequests.WithLabelValues(reason).Inc()
	g.log.Debug("Deferring cluster transition", "target", target, "reason", reason)
}

func (g *Group) replay() {
	if !g.hasPending || g.state == Transitioning {
		return
	}

	target := g.pending
	g.hasPending = false
	g.request(target)
}

// begin projects everything first so that a failing projection leaves every visual untouched.
func (g *Group) begin(target State) {
	anchorScreen, err := g.projection.ToScreenLocation(g.anchor)
	if err != nil {
		g.deferRequest(target, "projection")
		g.log.Debug("Could not project cluster anchor", "error", err)
		return
	}

	var positions []models.ScreenPoint
	if target == Expanded {
		positions, err = g.projectMembers()
		if err != nil {
			g.deferRequest(target, "projection")
			g.log.Debug("Could not project cluster members", "error", err)
			return
		}
	}

	g.hasPending = false
	g.state = Transitioning
	g.target = target
	g.generation++
	g.startedAt = g.now()
	g.outstanding = len(g.members) + 1

	g.log.Debug("Starting cluster transition", "target", target, "members", len(g.members))

	if len(g.members) == 0 {
		g.toggleParent(target, anchorScreen)
		g.outstanding = 0
		g.settle()
		return
	}

	g.metrics.ActiveAnimations.Add(float64(g.outstanding))

	if target == Expanded {
		g.startExpand(anchorScreen, positions, g.generation)
	} else {
		g.startCollapse(anchorScreen, g.generation)
	}
}

func (g *Group) startExpand(anchorScreen models.ScreenPoint, positions []models.ScreenPoint, gen uint64) {
	g.parent.SetPosition(anchorScreen)
	g.parent.FadeTo(0, g.duration, g.completion(gen, func() {
		g.parent.SetVisible(false)
		g.parentVisible = false
	}))

	for idx, member := range g.members {
		position := positions[idx]

		member.animating = true
		member.place(anchorScreen)
		member.show(true)
		member.visual.AnimateTo(position, g.duration, g.completion(gen, func() {
			member.animating = false
			member.lastScreen = position
			member.hasScreen = true
		}))
	}
}

func (g *Group) startCollapse(anchorScreen models.ScreenPoint, gen uint64) {
	g.parent.SetPosition(anchorScreen)
	g.parent.SetVisible(true)
	g.parentVisible = true
	g.parent.FadeTo(1, g.duration, g.completion(gen, nil))

	for _, member := range g.members {
		member.animating = true
		if last, ok := member.LastScreenPosition(); ok {
			member.visual.SetPosition(last)
		}
		member.visual.AnimateTo(anchorScreen, g.duration, g.completion(gen, func() {
			member.animating = false
			member.lastScreen = anchorScreen
			member.hasScreen = true
			member.show(false)
		}))
	}
}

// toggleParent switches an empty group without animating.
func (g *Group) toggleParent(target State, anchorScreen models.ScreenPoint) {
	g.parent.SetPosition(anchorScreen)
	if target == Collapsed {
		g.parent.SetOpacity(1)
		g.parent.SetVisible(true)
		g.parentVisible = true
		return
	}
	g.parent.SetOpacity(0)
	g.parent.SetVisible(false)
	g.parentVisible = false
}

// completion returns a callback that counts towards the barrier of transition gen.
// Repeated calls and calls for a stale transition are ignored.
func (g *Group) completion(gen uint64, done func()) func() {
	fired := false

	return func() {
		if fired {
			return
		}
		fired = true

		if g.closed || g.state != Transitioning || gen != g.generation {
			return
		}

		g.metrics.ActiveAnimations.Dec()
		if done != nil {
			done()
		}

		g.outstanding--
		if g.outstanding == 0 {
			g.settle()
		}
	}
}

func (g *Group) settle() {
	reached := g.target
	g.state = reached

	g.metrics.Transitions.WithLabelValues(reached.String()).Inc()
	g.metrics.TransitionSeconds.Observe(g.now().Sub(g.startedAt).Seconds())
	g.log.Debug("Cluster transition completed", "state", reached)

	if g.onSettled != nil {
		g.onSettled(reached)
	}

	g.replay()
}

func (g *Group) place() error {
	anchorScreen, err := g.projection.ToScreenLocation(g.anchor)
	if err != nil {
		return fmt.Errorf("failed to project anchor %s: %w", g.anchor, err)
	}

	var positions []models.ScreenPoint
	if g.state == Expanded {
		if positions, err = g.projectMembers(); err != nil {
			return err
		}
	}

	g.parent.SetPosition(anchorScreen)

	switch g.state {
	case Collapsed:
		if !g.parentVisible {
			g.parent.SetOpacity(1)
			g.parent.SetVisible(true)
			g.parentVisible = true
		}
		for _, member := range g.members {
			member.place(anchorScreen)
			member.show(false)
		}
	case Expanded:
		if g.parentVisible {
			g.parent.SetOpacity(0)
			g.parent.SetVisible(false)
			g.parentVisible = false
		}
		for idx, member := range g.members {
			member.place(positions[idx])
			member.show(true)
		}
	case Transitioning:
	}

	return nil
}

func (g *Group) projectMembers() ([]models.ScreenPoint, error) {
	positions := make([]models.ScreenPoint, len(g.members))

	for idx, member := range g.members {
		position, err := g.projection.ToScreenLocation(member.location)
		if err != nil {
			return nil, fmt.Errorf("failed to project member %s: %w", member.id, err)
		}
		positions[idx] = position
	}

	return positions, nil
}
