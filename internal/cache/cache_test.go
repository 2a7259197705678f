package cache

import (
	"strings"
	"testing"
	"time"
)

func TestContentKeyStable(t *testing.T) {
	a := ContentKey([]byte("report text"))
	b := ContentKey([]byte("report text"))
	c := ContentKey([]byte("different text"))

	if a != b {
		t.Error("same content must hash to the same key")
	}
	if a == c {
		t.Error("different content must hash to different keys")
	}
	if !strings.HasPrefix(a, "threatlens:v1:doc:") {
		t.Errorf("key = %q", a)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key should miss")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := ContentKey([]byte("some document"))
	if err := c.Set(key, []byte("payload"), time.Minute); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "payload" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestLayeredCachePromotes(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	// A fresh layered cache over the same disk dir misses memory and
	// falls back to disk.
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
}
