package scenario

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/vanpelt/trainer/internal/cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts step markdown to sanitized HTML and memoizes the result
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *cache.LRU[string]
}

// NewRenderer creates a GitHub-flavoured markdown renderer
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	// Keep fenced code language hints so the browser can highlight and offer "Run"
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
		cache:  cache.NewLRU[string](cache.Config{MaxSize: 64}),
	}
}

// Render returns the HTML for the given markdown source
func (r *Renderer) Render(source string) (string, error) {
	key := contentKey(source)
	if html, ok := r.cache.Get(key); ok {
		return html, nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	html := r.policy.Sanitize(buf.String())
	r.cache.Set(key, html)
	return html, nil
}

// Reset drops every memoized rendering
func (r *Renderer) Reset() {
	r.cache.Clear("")
}

func contentKey(source string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return fmt.Sprintf("md:%x:%d", h.Sum64(), len(source))
}
