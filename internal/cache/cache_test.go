package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/amr2daide/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("digest-a", false, "(c / country)")

	if !strings.HasPrefix(a, "amr2daide:v1:") {
		t.Errorf("unexpected key prefix %q", a)
	}
	if a != CacheKey("digest-a", false, "(c / country)") {
		t.Error("expected stable keys")
	}
	for _, other := range []string{
		CacheKey("digest-b", false, "(c / country)"),
		CacheKey("digest-a", true, "(c / country)"),
		CacheKey("digest-a", false, "(c / city)"),
	} {
		if other == a {
			t.Errorf("expected distinct key, got %q twice", a)
		}
	}
}

func TestTranslations_RoundTrip(t *testing.T) {
	tr := NewTranslations(NewMemoryCache(time.Minute, time.Minute), 0)
	key := CacheKey("d", true, "(p / propose-01)")

	if _, found := tr.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}

	entry := &Entry{
		Segments: []model.Segment{
			{Kind: model.SegmentDAIDE, Text: "PRP ($arg1)", Rule: "propose", Holes: []model.Hole{{Name: "arg1", Len: 1}}},
			model.LiteralSegment("(x / xyz-01)"),
		},
		Rules: []string{"propose"},
	}
	if err := tr.Put(key, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := tr.Get(key)
	if !found {
		t.Fatal("expected hit after Put")
	}
	if !reflect.DeepEqual(got, entry) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, entry)
	}
}

func TestTranslations_CorruptEntry(t *testing.T) {
	mem := NewMemoryCache(time.Minute, time.Minute)
	_ = mem.Set("k", []byte("{not json"), 0)

	tr := NewTranslations(mem, 0)
	if _, found := tr.Get("k"); found {
		t.Error("expected corrupt entry to miss")
	}
	if _, found := mem.Get("k"); found {
		t.Error("expected corrupt entry to be dropped")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	if v, found := c.Get("a"); !found || string(v) != "1" {
		t.Errorf("expected a=1, got %q %v", v, found)
	}
	if _, found := c.Get("b"); found {
		t.Error("expected b to have expired")
	}

	_ = c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("expected a deleted")
	}

	_ = c.Set("c", []byte("3"), 0)
	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("d", false, "(a / and)")

	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, found := c.Get(key)
	if !found || string(v) != "payload" {
		t.Fatalf("expected payload, got %q %v", v, found)
	}

	// Sharded by the leading hash characters
	hash := key[len("amr2daide:v1:"):]
	if _, err := os.Stat(filepath.Join(dir, hash[:2])); err != nil {
		t.Errorf("expected shard directory: %v", err)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("expected deleting a missing key to succeed, got %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected miss after Delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expected expired entry removed, stat err = %v", err)
	}
}

func TestLayeredCache_Promotes(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh layered cache over the same directory only has the disk copy
	fresh := NewLayeredCache(time.Minute, dir, time.Hour)
	if _, found := fresh.memory.Get("k"); found {
		t.Fatal("expected empty memory layer")
	}
	if v, found := fresh.Get("k"); !found || string(v) != "v" {
		t.Fatalf("expected disk hit, got %q %v", v, found)
	}
	if _, found := fresh.memory.Get("k"); !found {
		t.Error("expected disk hit promoted to memory")
	}

	if err := fresh.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := fresh.Get("k"); found {
		t.Error("expected miss after Clear")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}
