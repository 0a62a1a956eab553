package viewer

import (
	"unicode/utf8"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
)

// Card is a simple node payload: a title and fixed pin counts.
type Card struct {
	Title   string `json:"title" bson:"title"`
	Inputs  int    `json:"inputs" bson:"inputs"`
	Outputs int    `json:"outputs" bson:"outputs"`
	Note    string `json:"note,omitempty" bson:"note,omitempty"`
}

// Card sizing used by [Cards.Size].
const (
	CardMinWidth  = 120
	CardCharWidth = 8
	CardPadding   = 24
	CardHeight    = 60
	CardPinPitch  = 20
)

// Cards is the [Viewer] for [Card] payloads.
type Cards struct {
	// Menu enables the dropped-wire menu.
	Menu bool
	// SelfLoops allows wiring a card to itself.
	SelfLoops bool
	// SingleInput limits every input pin to one incoming wire.
	SingleInput bool
}

func (Cards) Title(c *Card) string { return c.Title }
func (Cards) Inputs(c *Card) int { return max(c.Inputs, 0) }
func (Cards) Outputs(c *Card) int { return max(c.Outputs, 0) }
func (Cards) HasInput(c *Card) bool { return c.Inputs > 0 }
func (Cards) HasOutput(c *Card) bool { return c.Outputs > 0 }

// Size fits the title and leaves room for the pins.
func (Cards) Size(c *Card) geom.Vec {
	w := float64(utf8.RuneCountInString(c.Title)*CardCharWidth + CardPadding)
	pins := float64(max(c.Inputs, c.Outputs) + 1)
	w = max(w, pins*CardPinPitch, CardMinWidth)
	return geom.V(w, CardHeight)
}

func (v Cards) HasDroppedWireMenu([]treeize.AnyPin, *treeize.Treeize[Card]) bool {
	return v.Menu
}

func (v Cards) CanConnect(from treeize.OutPin, to treeize.InPin, _ *treeize.Treeize[Card]) bool {
	if from.ID.Node == to.ID.Node && !v.SelfLoops {
		return false
	}
	if v.SingleInput && len(to.Remotes) > 0 {
		return false
	}
	return true
}
