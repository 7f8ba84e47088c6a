package service

import (
	"bytes"
	"html/template"
	"time"

	"blogicum/internal/logger"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ContentCache stores rendered HTML between requests.
type ContentCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	TTL() time.Duration
}

// Renderer turns user-written Markdown into sanitized HTML.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	cache     ContentCache
	log       logger.Logger
}

// NewRenderer creates a Renderer. cache may be nil.
func NewRenderer(cache ContentCache, log logger.Logger) *Renderer {
	// UGCPolicy allows basic formatting like links, lists and emphasis
	// while stripping scripts and event handlers.
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
		cache:     cache,
		log:       log,
	}
}

// Render returns the HTML of src. key identifies this exact revision of the
// source; an empty key bypasses the cache.
func (r *Renderer) Render(key, src string) template.HTML {
	if key != "" && r.cache != nil {
		if cached, err := r.cache.Get(key); err != nil {
			r.log.Error(err, "Failed to read rendered content from cache")
		} else if cached != nil {
			return template.HTML(cached)
		}
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		r.log.Error(err, "Failed to render markdown")
		return template.HTML(template.HTMLEscapeString(src))
	}
	out := r.sanitizer.SanitizeBytes(buf.Bytes())

	if key != "" && r.cache != nil {
		if err := r.cache.Set(key, out, r.cache.TTL()); err != nil {
			r.log.Error(err, "Failed to store rendered content in cache")
		}
	}
	return template.HTML(out)
}
