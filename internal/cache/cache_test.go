package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := BoundaryKey(12, 0.35, 3.0, 0.40)
	b := BoundaryKey(12, 0.35, 3.0, 0.40)
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if c := BoundaryKey(12, 0.35, 3.0, 0.50); c == a {
		t.Errorf("tuning change did not change the key")
	}
	if c := BoundaryKey(13, 0.35, 3.0, 0.40); c == a {
		t.Errorf("book change did not change the key")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key("boundary", "test")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(key)
	if !found || !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("Get = (%q, %v), want payload", got, found)
	}

	c.Delete(key)
	if _, found := c.Get(key); found {
		t.Error("value survived Delete")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("boundary", "disk")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(key)
	if !found || !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("Get = (%q, %v), want payload", got, found)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("boundary", "expired")
	if err := c.Set(key, []byte("payload"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expired entry returned")
	}
}

func TestLayeredCachePromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Minute)

	key := Key("boundary", "layered")
	if err := disk.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	if _, found := layered.Get(key); !found {
		t.Fatal("layered cache missed a disk entry")
	}
	// A second read must hit even if the disk entry disappears.
	disk.Delete(key)
	if _, found := layered.Get(key); !found {
		t.Error("disk hit was not promoted to memory")
	}
}
