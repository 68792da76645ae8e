package mapview

import (
	"fmt"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/models"
)

// Label is a text marker drawn over the map. Its state is only read and written on the loop.
type Label struct {
	loop *Loop
	text string

	position  models.ScreenPoint
	visible   bool
	opacity   float64
	animating int
}

// NewLabel creates a hidden, opaque label whose animations complete on loop.
func NewLabel(loop *Loop, text string) *Label {
	return &Label{loop: loop, text: text, opacity: 1}
}

func (l *Label) Text() string { return l.text }

func (l *Label) Position() models.ScreenPoint { return l.position }

func (l *Label) Visible() bool { return l.visible }

func (l *Label) Opacity() float64 { return l.opacity }

// Animating reports whether a move or fade is still in flight.
func (l *Label) Animating() bool { return l.animating > 0 }

func (l *Label) SetPosition(p models.ScreenPoint) { l.position = p }

func (l *Label) SetVisible(visible bool) { l.visible = visible }

func (l *Label) SetOpacity(alpha float64) { l.opacity = alpha }

// AnimateTo moves the label to p once d has elapsed and then calls onComplete on the loop.
func (l *Label) AnimateTo(p models.ScreenPoint, d time.Duration, onComplete func()) {
	l.after(d, func() {
		l.position = p
	}, onComplete)
}

// FadeTo sets the label's opacity to alpha once d has elapsed and then calls onComplete on the loop.
func (l *Label) FadeTo(alpha float64, d time.Duration, onComplete func()) {
	l.after(d, func() {
		l.opacity = alpha
	}, onComplete)
}

func (l *Label) after(d time.Duration, apply func(), onComplete func()) {
	l.animating++

	time.AfterFunc(d, func() {
		l.loop.Post(func() {
			l.animating--
			apply()
			if onComplete != nil {
				onComplete()
			}
		})
	})
}

func (l *Label) String() string {
	return fmt.Sprintf("%s@(%.1f,%.1f) visible=%t opacity=%.2f", l.text, l.position.X, l.position.Y, l.visible, l.opacity)
}
