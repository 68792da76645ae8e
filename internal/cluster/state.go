package cluster

import (
	"fmt"
	"strings"
)

// State is the display state of a Group.
type State int

const (
	// Collapsed shows the parent marker and hides every member.
	Collapsed State = iota
	// Expanded shows every member and hides the parent marker.
	Expanded
	// Transitioning means animations towards a target state are in flight.
	Transitioning
)

func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	case Transitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState parses a settled state name. Transitioning is not accepted.
func ParseState(value string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "collapsed", "":
		return Collapsed, nil
	case "expanded":
		return Expanded, nil
	default:
		return Collapsed, fmt.Errorf("unknown cluster state %q, expected collapsed or expanded", value)
	}
}
