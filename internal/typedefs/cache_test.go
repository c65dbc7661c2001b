package typedefs

import (
	"reflect"
	"testing"
)

type countingSelector struct{ calls int }

func (c *countingSelector) Select(ctx RequestContext, cfg FilterConfig) Result {
	c.calls++
	return Select(ctx, cfg)
}

func TestCache_HitsReturnIdenticalOutput(t *testing.T) {
	inner := &countingSelector{}
	sel, err := NewCache(inner, 8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	ctx := RequestContext{Filename: "Character.hx", ObjectType: "CHARACTER"}
	cfg := openConfig()

	first := sel.Select(ctx, cfg)
	second := sel.Select(ctx, cfg)
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, Select(ctx, cfg)) {
		t.Fatal("cached output differs from uncached")
	}
}

func TestCache_CallerMutationDoesNotLeak(t *testing.T) {
	sel, _ := NewCache(Static{}, 4)
	ctx := RequestContext{Filename: "a.hx", ObjectType: "ASSIST"}
	r := sel.Select(ctx, openConfig())
	r.Fragments[0].Contents = "tampered"
	if again := sel.Select(ctx, openConfig()); again.Fragments[0].Contents == "tampered" {
		t.Fatal("cache entry was mutated through a returned result")
	}
}

func TestCache_KeyCoversConfig(t *testing.T) {
	inner := &countingSelector{}
	sel, _ := NewCache(inner, 8)
	ctx := RequestContext{Filename: "a.hx"}

	cfg := openConfig()
	sel.Select(ctx, cfg)
	cfg.ScriptAssetEnabled = false
	if r := sel.Select(ctx, cfg); !r.Empty() {
		t.Fatal("config change must not be served from cache")
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
}

func TestCacheKey_NoSeparatorCollisions(t *testing.T) {
	a := cacheKey(RequestContext{Filename: "a|b"}, FilterConfig{})
	b := cacheKey(RequestContext{Filename: "a", ScriptingLanguage: "b"}, FilterConfig{})
	if a == b {
		t.Fatal("distinct requests produced the same key")
	}
	c := cacheKey(RequestContext{}, FilterConfig{Extensions: []string{"hx", "hxs"}})
	d := cacheKey(RequestContext{}, FilterConfig{Extensions: []string{"hx"}, Languages: []string{"hxs"}})
	if c == d {
		t.Fatal("extensions and languages share key space")
	}
}

func TestNewCache_Disabled(t *testing.T) {
	sel, err := NewCache(nil, 0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if _, ok := sel.(Static); !ok {
		t.Fatalf("disabled cache should return the inner selector, got %T", sel)
	}
}
