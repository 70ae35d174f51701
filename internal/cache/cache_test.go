package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_Namespacing(t *testing.T) {
	if Key("page", "Laksa") == Key("resolution", "Laksa") {
		t.Error("Expected different kinds to produce different keys")
	}
	if Key("page", "Laksa") != Key("page", "Laksa") {
		t.Error("Expected key generation to be deterministic")
	}
	if !strings.HasPrefix(PageKey("Laksa"), "wikimend:v1:page:") {
		t.Errorf("Expected the page namespace prefix, got %q", PageKey("Laksa"))
	}
	if !strings.HasPrefix(ResolutionKey("https://a.example"), "wikimend:v1:resolution:") {
		t.Errorf("Expected the resolution namespace prefix, got %q", ResolutionKey("https://a.example"))
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected a miss for an unset key")
	}

	if err := c.Set("k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "value" {
		t.Errorf("Expected value back, got %q (found=%v)", got, found)
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected a miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected the entry to expire")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := ResolutionKey("https://a.example/page")
	if err := c.Set(key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, found := c.Get(key)
	if !found || string(got) != "payload" {
		t.Errorf("Expected payload back, got %q (found=%v)", got, found)
	}

	_ = c.Delete(key)
	if _, found := c.Get(key); found {
		t.Error("Expected a miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected the entry to expire")
	}
}

func TestDiskCache_DefaultTTL(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	_ = c.Set("k", []byte("v"), 0)
	if _, found := c.Get("k"); !found {
		t.Error("Expected zero TTL to fall back to the cache default")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Minute)
	if err := first.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A fresh instance has an empty memory layer; the value must come
	// off disk and land back in memory.
	second := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := second.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("Expected a disk hit, got %q (found=%v)", got, found)
	}

	if _, found := second.memory.Get("k"); !found {
		t.Error("Expected the disk hit promoted to memory")
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	_ = c.Set("k", []byte("v"), time.Minute)
	if err := c.Clear(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected a miss after clear")
	}
}

func TestGetSetJSON(t *testing.T) {
	type record struct {
		URL       string `json:"url"`
		Reachable bool   `json:"reachable"`
	}

	c := NewMemoryCache(time.Minute, time.Minute)
	key := ResolutionKey("https://a.example")

	if err := SetJSON(c, key, record{URL: "https://a.example", Reachable: true}, time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var got record
	if !GetJSON(c, key, &got) {
		t.Fatal("Expected a hit")
	}
	if !got.Reachable || got.URL != "https://a.example" {
		t.Errorf("Expected the record back, got %+v", got)
	}

	// Undecodable bytes are a miss, not an error.
	_ = c.Set("corrupt", []byte("not json"), time.Minute)
	var miss record
	if GetJSON(c, "corrupt", &miss) {
		t.Error("Expected a decode failure treated as a miss")
	}
}
