package typedefs

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes selections. Payloads are large compared to the inputs, so
// a hit saves the concatenation work on every keystroke-triggered request.
type Cache struct {
	next  Selector
	cache *lru.Cache[string, Result]
}

// NewCache wraps next with an LRU of the given size. A size of zero or
// less disables caching and returns next unchanged.
func NewCache(next Selector, size int) (Selector, error) {
	if next == nil {
		next = Static{}
	}
	if size <= 0 {
		return next, nil
	}
	c, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create selection cache: %w", err)
	}
	return &Cache{next: next, cache: c}, nil
}

func (c *Cache) Select(ctx RequestContext, cfg FilterConfig) Result {
	key := cacheKey(ctx, cfg)
	if r, ok := c.cache.Get(key); ok {
		return r.clone()
	}
	r := c.next.Select(ctx, cfg)
	c.cache.Add(key, r.clone())
	return r
}

// Len returns the number of cached selections.
func (c *Cache) Len() int { return c.cache.Len() }

// Purge drops every cached selection.
func (c *Cache) Purge() { c.cache.Purge() }

func (r Result) clone() Result {
	if r.Fragments == nil {
		return Result{}
	}
	return Result{Fragments: append([]Fragment(nil), r.Fragments...)}
}

// cacheKey encodes every input. Fields are length-prefixed so values
// containing separators cannot collide.
func cacheKey(ctx RequestContext, cfg FilterConfig) string {
	var b strings.Builder
	field := func(s string) { fmt.Fprintf(&b, "%d:%s|", len(s), s) }
	field(ctx.Filename)
	field(ctx.ScriptingLanguage)
	field(ctx.ObjectType)
	fmt.Fprintf(&b, "%t|%t|", cfg.FrameScriptEnabled, cfg.ScriptAssetEnabled)
	fmt.Fprintf(&b, "%d|", len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		field(e)
	}
	fmt.Fprintf(&b, "%d|", len(cfg.Languages))
	for _, l := range cfg.Languages {
		field(l)
	}
	return b.String()
}
