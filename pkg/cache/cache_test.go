package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NullCache{}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestBackends(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	backends := []struct {
		name  string
		cache Cache
	}{
		{"memory", NewMemoryCache(0)},
		{"file", fc},
	}
	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := tt.cache

			if _, hit, _ := c.Get(ctx, "missing"); hit {
				t.Error("Get(missing) hit = true")
			}
			if err := c.Set(ctx, "svg", []byte("<svg/>"), 0); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			data, hit, err := c.Get(ctx, "svg")
			if err != nil || !hit || string(data) != "<svg/>" {
				t.Errorf("Get() = %q, %v, %v, want <svg/>, true, nil", data, hit, err)
			}

			if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
				t.Fatal(err)
			}
			time.Sleep(2 * time.Millisecond)
			if _, hit, _ := c.Get(ctx, "old"); hit {
				t.Error("Get(expired) hit = true")
			}

			if err := c.Delete(ctx, "svg"); err != nil {
				t.Errorf("Delete() error = %v", err)
			}
			if _, hit, _ := c.Get(ctx, "svg"); hit {
				t.Error("Get() after Delete hit = true")
			}
			if err := c.Delete(ctx, "svg"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestMemoryCacheEvicts(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("oldest entry survived eviction")
	}
	// Overwriting does not count as a new entry.
	_ = c.Set(ctx, "b", []byte("b2"), 0)
	if data, _, _ := c.Get(ctx, "b"); string(data) != "b2" {
		t.Errorf("Get(b) = %q, want b2", data)
	}
	if _, hit, _ := c.Get(ctx, "c"); !hit {
		t.Error("Get(c) hit = false after overwrite of b")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v, want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Fatalf("Clear() = %d, %v, want 3, nil", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get() after Clear() hit, want miss")
	}
}

func TestKey(t *testing.T) {
	k1, err := Key("render", "doc", "svg")
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := Key("render", "doc", "svg")
	k3, _ := Key("render", "doc", "png")
	if k1 != k2 {
		t.Error("Key() is not deterministic")
	}
	if k1 == k3 {
		t.Error("Key() ignores its parts")
	}
	if len(k1) != len("render:")+64 {
		t.Errorf("Key() = %q, want render: plus a SHA-256 hex digest", k1)
	}
	if _, err := Key("render", make(chan int)); err == nil {
		t.Error("Key(chan) error = nil")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
}
