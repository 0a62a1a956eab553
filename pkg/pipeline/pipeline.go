// Package pipeline runs the layout → export pipeline over snapshot
// documents with caching.
//
// The command line and the HTTP server both go through a [Runner], so a
// layout computed by one is a cache hit for the other.
//
// # Stages
//
//  1. Layout: restore the document, lay it out with the viewer's pin
//     predicates and size estimates, and write positions back
//  2. Render: produce artifacts in the requested formats
//
// # Usage
//
//	runner := pipeline.NewRunner[viewer.Card](c, nil, viewer.Cards{}, logger)
//	res, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Layout:  layout.DefaultConfig(),
//	    Wire:    wire.DefaultStyle(),
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"slices"
	"time"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/layout"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Format constants for output formats.
const (
	// FormatSVG draws the scene directly with the wire curves.
	FormatSVG = "svg"
	// FormatDOT is Graphviz source with pinned positions.
	FormatDOT = "dot"
	// FormatGraphviz is SVG rendered by Graphviz from FormatDOT.
	FormatGraphviz = "graphviz"
	// FormatPNG and FormatPDF convert FormatSVG with rsvg-convert.
	FormatPNG = "png"
	FormatPDF = "pdf"
	// FormatJSON is the laid-out snapshot document.
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
}

// Default cache lifetimes.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLExport = 24 * time.Hour
)

// DefaultPNGScale is the PNG resolution multiplier.
const DefaultPNGScale = 2.0

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return terrors.New(terrors.ErrCodeInvalidInput, "unsupported format %q", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures a pipeline run.
type Options struct {
	Layout  layout.Config
	Wire    wire.Style
	Formats []string

	// Refresh skips cache reads; results are still written.
	Refresh bool
	// TTL overrides the layout and export cache lifetimes when positive.
	TTL time.Duration
	// Detailed adds pin labels to DOT output.
	Detailed bool
	// Scale is the PNG resolution multiplier.
	Scale float64
}

// ValidateAndSetDefaults validates formats and fills zero values.
func (o *Options) ValidateAndSetDefaults() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Formats = slices.Compact(slices.Sorted(slices.Values(o.Formats)))
	if o.Layout.HorizontalSpacing == 0 && o.Layout.VerticalSpacing == 0 {
		def := layout.DefaultConfig()
		o.Layout.HorizontalSpacing, o.Layout.VerticalSpacing = def.HorizontalSpacing, def.VerticalSpacing
	}
	if o.Wire == (wire.Style{}) {
		o.Wire = wire.DefaultStyle()
	}
	if o.Scale <= 0 {
		o.Scale = DefaultPNGScale
	}
	return nil
}

func (o Options) layoutTTL() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return TTLLayout
}

func (o Options) exportTTL() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return TTLExport
}

// Stats describes a pipeline run.
type Stats struct {
	Nodes      int
	Wires      int
	Roots      int
	Fallback   bool
	Unplaced   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// Degenerate reports whether any node fell back to the start position.
func (s Stats) Degenerate() bool { return s.Fallback || s.Unplaced > 0 }

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	// RenderHits lists the formats served from the cache.
	RenderHits []string
}

// Result is the output of [Runner.Execute].
type Result[T any] struct {
	// Document is the input with positions replaced by the layout.
	Document  *snapshot.Document[T]
	DocHash   string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}
