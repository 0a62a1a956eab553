package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treeize/pkg/cache"
	"github.com/matzehuels/treeize/pkg/observability"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different documents.
type Runner[T any] struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Viewer viewer.Viewer[T]
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching and a nil logger means log.Default().
func NewRunner[T any](c cache.Cache, keyer cache.Keyer, v viewer.Viewer[T], logger *log.Logger) *Runner[T] {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner[T]{Cache: c, Keyer: keyer, Viewer: v, Logger: logger}
}

// Execute lays out doc and renders the requested formats.
func (r *Runner[T]) Execute(ctx context.Context, doc *snapshot.Document[T], opts Options) (*Result[T], error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	g, _, stats, hit, err := r.Layout(ctx, doc, opts)
	if err != nil {
		return nil, err
	}

	// Restore fills a fresh arena in document order, so the capture keeps
	// the input's node indices.
	out := snapshot.Capture(g)
	out.ID, out.Name, out.UpdatedAt = doc.ID, doc.Name, doc.UpdatedAt

	result := &Result[T]{
		Document:  out,
		Stats:     stats,
		CacheInfo: CacheInfo{LayoutHit: hit},
	}
	if result.DocHash, err = DocumentHash(out); err != nil {
		return nil, err
	}

	r.Logger.Debug("computed layout",
		"nodes", stats.Nodes,
		"roots", stats.Roots,
		"cached", hit,
		"duration", stats.LayoutTime)
	if stats.Degenerate() {
		r.Logger.Warn("degenerate layout", "fallback", stats.Fallback, "unplaced", stats.Unplaced)
	}

	if len(opts.Formats) == 0 {
		return result, nil
	}

	renderStart := time.Now()
	artifacts, hits, err := r.RenderWithCacheInfo(ctx, g, out, result.DocHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHits = hits
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Layout restores doc and positions its nodes, from the cache when
// possible. The returned ids map document indices to graph handles.
func (r *Runner[T]) Layout(ctx context.Context, doc *snapshot.Document[T], opts Options) (*treeize.Treeize[T], []treeize.NodeID, Stats, bool, error) {
	start := time.Now()
	g, ids, err := snapshot.Restore(doc)
	if err != nil {
		return nil, nil, Stats{}, false, err
	}
	stats := Stats{Nodes: g.Len(), Wires: g.WireCount()}

	hash, err := StructureHash(doc)
	if err != nil {
		return nil, nil, Stats{}, false, err
	}
	key := r.Keyer.LayoutKey(hash, LayoutKeyOpts(opts.Layout))

	if !opts.Refresh {
		if data, err := cache.Lookup(ctx, r.Cache, key); err == nil {
			var rec layoutRecord
			if json.Unmarshal(data, &rec) == nil && applyRecord(g, ids, rec) {
				observability.Cache().OnCacheHit(ctx, "layout")
				stats.Roots, stats.Fallback, stats.Unplaced = rec.Roots, rec.Fallback, rec.Unplaced
				stats.LayoutTime = time.Since(start)
				return g, ids, stats, true, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.Logger.Warn("layout cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Engine().OnLayoutStart(ctx, g.Len())
	rec := computeLayout(g, ids, r.Viewer, opts.Layout)
	stats.Roots, stats.Fallback, stats.Unplaced = rec.Roots, rec.Fallback, rec.Unplaced
	stats.LayoutTime = time.Since(start)
	observability.Engine().OnLayoutComplete(ctx, observability.LayoutStats{
		Nodes:    stats.Nodes,
		Roots:    stats.Roots,
		Fallback: stats.Fallback,
		Unplaced: stats.Unplaced,
	}, stats.LayoutTime)

	if data, err := json.Marshal(rec); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.layoutTTL()); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return g, ids, stats, false, nil
}
