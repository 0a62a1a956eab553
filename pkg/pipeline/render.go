package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/treeize/pkg/cache"
	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/observability"
	"github.com/matzehuels/treeize/pkg/render"
	"github.com/matzehuels/treeize/pkg/render/dot"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// ExportKeyOpts converts render options for one format to cache key options.
func ExportKeyOpts(format string, opts Options) cache.ExportKeyOpts {
	k := cache.ExportKeyOpts{Format: format, Axis: opts.Wire.Axis.String()}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		k.Curve = curveKey(opts.Wire)
	}
	if format == FormatPNG {
		k.Scale = opts.Scale
	}
	if format == FormatDOT || format == FormatGraphviz {
		k.Detailed = opts.Detailed
	}
	return k
}

func curveKey(s wire.Style) string {
	return fmt.Sprintf("%s/%g/%t/%t/%g", s.Kind, s.FrameSize, s.Downscale, s.Upscale, s.Width)
}

// RenderWithCacheInfo renders every requested format of the laid-out graph
// g, whose captured document is doc with hash docHash. It returns the
// formats served from the cache.
func (r *Runner[T]) RenderWithCacheInfo(ctx context.Context, g *treeize.Treeize[T], doc *snapshot.Document[T], docHash string, opts Options) (map[string][]byte, []string, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var hits []string

	for _, format := range opts.Formats {
		key := r.Keyer.ExportKey(docHash, ExportKeyOpts(format, opts))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "export")
				artifacts[format] = data
				hits = append(hits, format)
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "export")
		}

		start := time.Now()
		data, err := Render(ctx, g, r.Viewer, doc, format, opts)
		observability.Engine().OnExport(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, nil, err
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, opts.exportTTL()); err == nil {
			observability.Cache().OnCacheSet(ctx, "export", len(data))
		}
	}
	return artifacts, hits, nil
}

// Render produces one artifact without caching.
func Render[T any](ctx context.Context, g *treeize.Treeize[T], v viewer.Viewer[T], doc *snapshot.Document[T], format string, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data, err = renderSVG(g, v, opts)
	case FormatPNG:
		if data, err = renderSVG(g, v, opts); err == nil {
			data, err = render.ToPNG(data, opts.Scale)
		}
	case FormatPDF:
		if data, err = renderSVG(g, v, opts); err == nil {
			data, err = render.ToPDF(data)
		}
	case FormatDOT:
		data = []byte(toDOT(g, v, opts))
	case FormatGraphviz:
		data, err = dot.RenderSVG(ctx, toDOT(g, v, opts))
	case FormatJSON:
		var buf bytes.Buffer
		err = snapshot.WriteJSON(&buf, doc)
		data = buf.Bytes()
	default:
		return nil, terrors.New(terrors.ErrCodeUnsupported, "unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

func renderSVG[T any](g *treeize.Treeize[T], v viewer.Viewer[T], opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, g, v, render.Options{Style: opts.Wire}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toDOT[T any](g *treeize.Treeize[T], v viewer.Viewer[T], opts Options) string {
	return dot.ToDOT(g, v, dot.Options{Axis: opts.Wire.Axis, Detailed: opts.Detailed})
}
