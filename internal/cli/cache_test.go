package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/treeize/pkg/cache"
)

func TestCacheDirFollowsConfig(t *testing.T) {
	dir := isolate(t)

	c := New(io.Discard, LogInfo)
	got, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cache", "treeize"); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}

	cfgPath := filepath.Join(dir, "custom.toml")
	custom := filepath.Join(dir, "elsewhere")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+filepath.ToSlash(custom)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c = New(io.Discard, LogInfo)
	c.ConfigPath = cfgPath
	if got, err := c.cacheDir(); err != nil || got != filepath.ToSlash(custom) {
		t.Errorf("cacheDir() = %q, %v, want %q", got, err, custom)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := isolate(t)
	cacheDir := filepath.Join(dir, "cache", "treeize")

	fc, err := cache.NewFileCache(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "layout:abc", []byte("{}"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "layout:abc"); ok {
		t.Error("entry should be gone after cache clear")
	}
}
