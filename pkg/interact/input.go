package interact

import "github.com/matzehuels/treeize/pkg/geom"

// Button is the state of one pointer button during a step.
type Button struct {
	Down     bool // held at the end of the step
	Pressed  bool // went down during the step
	Released bool // went up during the step
}

// Pointer is the pointer state in scene coordinates.
type Pointer struct {
	Pos       geom.Vec
	Present   bool // false when the pointer is outside the canvas
	Primary   Button
	Secondary Button
}

// Modifiers holds the modifier keys. Command is Ctrl, or Cmd on macOS.
type Modifiers struct {
	Shift   bool
	Command bool
	Alt     bool
}

// Input is everything the machine polls in one step.
type Input struct {
	Pointer   Pointer
	Modifiers Modifiers
	// Scale is the current zoom factor, screen units per scene unit.
	// Zero means 1.
	Scale float64
}

func (in Input) scale() float64 {
	if in.Scale <= 0 {
		return 1
	}
	return in.Scale
}
