// Package llm provides the OpenAI client and prompt utilities.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"napoleon_server/core/port/out"
)

// =============================================================================
// Prompt Templates
// =============================================================================
//
// Templates use {{variable}} tokens substituted by RenderTemplate. Rendered
// prompts may be cached keyed by template name + variables; the cache is a
// performance optimization only and is invalidated when template content
// changes (the content hash is part of the key).

// Template is a named prompt template.
type Template struct {
	Name string
	Text string
}

// RenderTemplate substitutes {{key}} tokens with their values.
// Unknown tokens are left in place so a bad prompt is visible in logs rather
// than silently empty.
func RenderTemplate(text string, vars map[string]string) string {
	out := text
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// cacheKey builds a deterministic cache key from template name, content and
// substituted variables. Including the content hash invalidates the cache
// whenever the template text changes.
func cacheKey(tpl Template, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("prompt:")
	b.WriteString(tpl.Name)
	b.WriteString(fmt.Sprintf(":%x:", fnv64(tpl.Text)))
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(vars[k])
		b.WriteByte(';')
	}
	return b.String()
}

func fnv64(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

// PromptCache caches rendered prompts.
type PromptCache struct {
	cache out.Cache
	ttl   time.Duration
}

// NewPromptCache creates a prompt cache. A nil backing cache disables it.
func NewPromptCache(cache out.Cache) *PromptCache {
	return &PromptCache{cache: cache, ttl: 10 * time.Minute}
}

// WithTTL overrides the cache entry lifetime.
func (p *PromptCache) WithTTL(ttl time.Duration) *PromptCache {
	if ttl > 0 {
		p.ttl = ttl
	}
	return p
}

// Render returns the rendered prompt, consulting the cache first.
func (p *PromptCache) Render(ctx context.Context, tpl Template, vars map[string]string) string {
	if p == nil || p.cache == nil {
		return RenderTemplate(tpl.Text, vars)
	}

	key := cacheKey(tpl, vars)
	if cached, err := p.cache.GetString(ctx, key); err == nil && cached != "" {
		return cached
	}

	rendered := RenderTemplate(tpl.Text, vars)
	_ = p.cache.SetString(ctx, key, rendered, p.ttl)
	return rendered
}

// truncateBody limits body size sent to the LLM.
func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
