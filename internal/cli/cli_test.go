package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/treeize/internal/config"
	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// isolate points config, cache and document store at temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s: %v", path, err)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"demo", "layout", "export", "edit", "docs", "serve", "config", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg, dot ,json", []string{"svg", "dot", "json"}},
		{"svg,,png", []string{"svg", "png"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"graph.json", "", "graph"},
		{"dir/graph.layout.json", "", "dir/graph.layout"},
		{"graph.json", "out/pic.svg", "out/pic"},
		{"graph", "", "graph"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.input, tt.output); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestFormatExt(t *testing.T) {
	tests := map[string]string{
		pipeline.FormatSVG:      ".svg",
		pipeline.FormatDOT:      ".dot",
		pipeline.FormatGraphviz: ".graphviz.svg",
		pipeline.FormatJSON:     ".layout.json",
		pipeline.FormatPNG:      ".png",
	}
	for format, want := range tests {
		if got := formatExt(format); got != want {
			t.Errorf("formatExt(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestLayoutFlagsOptions(t *testing.T) {
	cfg := config.Default()

	t.Run("defaults from config", func(t *testing.T) {
		var f layoutFlags
		opts, err := f.options(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if opts.Layout != cfg.LayoutConfig() {
			t.Errorf("Layout = %+v, want %+v", opts.Layout, cfg.LayoutConfig())
		}
		if opts.TTL != cfg.Cache.TTL.Duration {
			t.Errorf("TTL = %v", opts.TTL)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		f := layoutFlags{axis: "horizontal", kind: "line", hspace: 7, vspace: 9, refresh: true}
		opts, err := f.options(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if opts.Wire.Axis != wire.Horizontal || opts.Wire.Kind != wire.Line {
			t.Errorf("Wire = %+v", opts.Wire)
		}
		if opts.Layout.Axis != wire.Horizontal {
			t.Errorf("Layout.Axis = %v, want horizontal", opts.Layout.Axis)
		}
		if opts.Layout.HorizontalSpacing != 7 || opts.Layout.VerticalSpacing != 9 || !opts.Refresh {
			t.Errorf("options = %+v", opts)
		}
	})

	for _, f := range []layoutFlags{{axis: "diagonal"}, {kind: "spline"}} {
		if _, err := f.options(cfg); err == nil {
			t.Errorf("options(%+v) should fail", f)
		}
	}
}

func TestDemoDocument(t *testing.T) {
	doc := demoDocument()
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	g, _, err := snapshot.Restore(doc)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 7 || g.WireCount() != 6 {
		t.Errorf("demo has %d nodes and %d wires, want 7 and 6", g.Len(), g.WireCount())
	}
}

func TestDemoCommand(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "out")

	if err := run(t, "demo", "--dir", out, "--format", "svg,dot,json", "--no-cache"); err != nil {
		t.Fatalf("demo: %v", err)
	}
	for _, name := range []string{"demo.svg", "demo.dot", "demo.layout.json"} {
		mustExist(t, filepath.Join(out, name))
	}
}

func TestLayoutAndExportCommands(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "graph.json")
	doc := demoDocument()
	if err := snapshot.Export(doc, input); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "layout", input, "--save"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	laidOut := filepath.Join(dir, "graph.layout.json")
	mustExist(t, laidOut)
	mustExist(t, filepath.Join(dir, "config", "treeize", "documents", doc.ID+".json"))

	got, err := snapshot.Import[viewer.Card](laidOut)
	if err != nil {
		t.Fatal(err)
	}
	moved := false
	for _, n := range got.Nodes {
		if n.X != 0 || n.Y != 0 {
			moved = true
		}
	}
	if !moved {
		t.Error("layout should position the nodes")
	}

	if err := run(t, "export", laidOut, "--format", "svg,dot"); err != nil {
		t.Fatalf("export: %v", err)
	}
	mustExist(t, filepath.Join(dir, "graph.layout.svg"))
	mustExist(t, filepath.Join(dir, "graph.layout.dot"))
}

func TestLayoutCommandErrors(t *testing.T) {
	dir := isolate(t)
	if err := run(t, "layout", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("layout of a missing file should fail")
	}
	input := filepath.Join(dir, "graph.json")
	if err := snapshot.Export(demoDocument(), input); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "layout", input, "--axis", "diagonal"); err == nil {
		t.Error("unknown axis should fail")
	}
}

func TestDocsCommands(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "graph.json")
	doc := demoDocument()
	if err := snapshot.Export(doc, input); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "docs", "put", input); err != nil {
		t.Fatalf("docs put: %v", err)
	}
	if err := run(t, "docs", "list"); err != nil {
		t.Fatalf("docs list: %v", err)
	}
	fetched := filepath.Join(dir, "fetched.json")
	if err := run(t, "docs", "get", doc.ID, "-o", fetched); err != nil {
		t.Fatalf("docs get: %v", err)
	}
	mustExist(t, fetched)
	if err := run(t, "docs", "rm", doc.ID); err != nil {
		t.Fatalf("docs rm: %v", err)
	}
	if err := run(t, "docs", "get", doc.ID); err == nil {
		t.Error("get after rm should fail")
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)
	if err := run(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	path := filepath.Join(dir, "config", "treeize", "config.toml")
	mustExist(t, path)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != config.CacheFile {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
}

func TestOpenForEditMissingFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sketches", "fresh.json")

	c := New(io.Discard, LogInfo)
	doc, save, err := c.openForEdit(context.Background(), config.Default(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "fresh" || doc.ID == "" || len(doc.Nodes) != 0 {
		t.Errorf("new document = %+v", doc)
	}

	doc.Nodes = append(doc.Nodes, snapshot.NodeRecord[viewer.Card]{Value: viewer.Card{Title: "a"}})
	where, err := save(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if where != path {
		t.Errorf("saved to %q, want %q", where, path)
	}
	back, err := snapshot.Import[viewer.Card](path)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != doc.ID || len(back.Nodes) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestEditCommandArgs(t *testing.T) {
	isolate(t)
	if err := run(t, "edit"); err == nil {
		t.Error("edit without a file or --id should fail")
	}
	if err := run(t, "edit", "x.json", "--id", "abc"); err == nil {
		t.Error("edit with both a file and --id should fail")
	}
	if err := run(t, "edit", "--id", "../etc"); err == nil {
		t.Error("edit with an invalid id should fail")
	}
}
