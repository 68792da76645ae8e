package cluster

import "github.com/UnknownOlympus/clusterview/internal/models"

// Member is a single point of interest inside a Group.
type Member struct {
	id       string
	location models.GeoPoint
	visual   Visual

	lastScreen models.ScreenPoint
	hasScreen  bool
	visible    bool
	animating  bool
}

// NewMember creates a hidden member. Its mutable state belongs to the Group it is added to.
func NewMember(id string, location models.GeoPoint, visual Visual) *Member {
	return &Member{id: id, location: location, visual: visual}
}

func (m *Member) ID() string { return m.id }

func (m *Member) Location() models.GeoPoint { return m.location }

// LastScreenPosition reports where the member was last placed, if it was placed at all.
func (m *Member) LastScreenPosition() (models.ScreenPoint, bool) {
	return m.lastScreen, m.hasScreen
}

func (m *Member) Visible() bool { return m.visible }

func (m *Member) Animating() bool { return m.animating }

func (m *Member) place(p models.ScreenPoint) {
	m.visual.SetPosition(p)
	m.lastScreen = p
	m.hasScreen = true
}

func (m *Member) show(visible bool) {
	if m.visible == visible {
		return
	}
	m.visual.SetVisible(visible)
	m.visible = visible
}
