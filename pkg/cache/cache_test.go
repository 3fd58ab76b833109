package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileCacheSetGet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() after Set() should hit")
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestFileCacheMiss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() on miss should not error: %v", err)
	}
	if ok {
		t.Error("Get() on absent key should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheDelete(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("deleted entry should be a miss")
	}

	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete() of absent key should not error: %v", err)
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	path := c.(*FileCache).entryPath("key")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.Get(ctx, "key"); ok || err != nil {
		t.Errorf("corrupt entry should miss without error, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed on read")
	}
}

func TestFileCacheShardedLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "key", []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	rel, err := filepath.Rel(dir, c.(*FileCache).entryPath("key"))
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 || len(parts[0]) != 2 {
		t.Errorf("entries should shard into two-character subdirectories, got %q", rel)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, err := c.Get(ctx, "key"); ok || err != nil {
		t.Error("null cache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	t1 := k.TreeKey("((A,B),C);")
	if !strings.HasPrefix(t1, "tree:") {
		t.Errorf("TreeKey() = %q, want tree: prefix", t1)
	}
	if t2 := k.TreeKey("((A,B),C);"); t2 != t1 {
		t.Error("TreeKey() should be deterministic")
	}
	if t3 := k.TreeKey("((A,C),B);"); t3 == t1 {
		t.Error("different trees should hash to different keys")
	}

	opts := LayoutKeyOpts{Width: 800, Height: 600, Margin: 20, Orientation: "left"}
	l1 := k.LayoutKey(t1, opts)
	if !strings.HasPrefix(l1, "layout:") {
		t.Errorf("LayoutKey() = %q, want layout: prefix", l1)
	}
	opts.Orientation = "right"
	if l2 := k.LayoutKey(t1, opts); l2 == l1 {
		t.Error("layout key should change with orientation")
	}

	a1 := k.ArtifactKey(l1, ArtifactKeyOpts{Format: "svg", Labels: true})
	if !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey() = %q, want artifact: prefix", a1)
	}
	if a2 := k.ArtifactKey(l1, ArtifactKeyOpts{Format: "pdf", Labels: true}); a2 == a1 {
		t.Error("artifact key should change with format")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(inner, "prod:")

	if got := k.TreeKey("(A,B);"); got != "prod:"+inner.TreeKey("(A,B);") {
		t.Errorf("TreeKey() = %q, want prefixed inner key", got)
	}

	// Nil inner falls back to the default keyer.
	fallback := NewScopedKeyer(nil, "x:")
	if got := fallback.TreeKey("(A,B);"); got != "x:"+inner.TreeKey("(A,B);") {
		t.Errorf("TreeKey() with nil inner = %q, want default hashing", got)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(h))
	}
	if h != Hash([]byte("hello")) {
		t.Error("Hash() should be deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
}
