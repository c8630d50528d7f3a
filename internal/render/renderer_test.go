package render

import (
	"context"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/devflow/internal/docs"
)

func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func load(t *testing.T, root, rel string) docs.Document {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return docs.Document{Path: rel, Content: b, Fingerprint: docs.Fingerprint(b)}
}

func renderString(t *testing.T, r *TemplateRenderer, root, rel string) string {
	t.Helper()
	out, err := r.Render(context.Background(), load(t, root, rel), root)
	require.NoError(t, err)
	return string(out)
}

func TestRenderPlainDocument(t *testing.T) {
	root := tree(t, map[string]string{"about.tmpl": `<p>{{ .Site.title }} {{ .Page.Output }}</p>`})
	r := NewTemplateRenderer(".tmpl", ".html", WithSiteData(map[string]any{"title": "Demo"}))

	assert.Equal(t, "<p>Demo about.html</p>", renderString(t, r, root, "about.tmpl"))
}

func TestRenderExtendsOverridesBlocks(t *testing.T) {
	root := tree(t, map[string]string{
		"_base.tmpl":     `<html><title>{{ block "title" . }}Site{{ end }}</title><body>{{ block "content" . }}empty{{ end }}</body></html>`,
		"_section.tmpl":  `{{ extends "_base" }}{{ define "content" }}<main>{{ block "main" . }}{{ end }}</main>{{ end }}`,
		"blog/post.tmpl": "{{- extends \"/_section\" -}}\n{{ define \"title\" }}Post{{ end }}\n{{ define \"main\" }}hello{{ end }}",
	})
	r := NewTemplateRenderer(".tmpl", ".html")

	assert.Equal(t, "<html><title>Post</title><body><main>hello</main></body></html>",
		renderString(t, r, root, "blog/post.tmpl"))
}

func TestRenderLayoutDirectlyUsesDefaults(t *testing.T) {
	root := tree(t, map[string]string{
		"layout.tmpl": `<body>{{ block "content" . }}default{{ end }}</body>`,
		"page.tmpl":   `{{ extends "layout" }}{{ define "content" }}page{{ end }}`,
	})
	r := NewTemplateRenderer(".tmpl", ".html")

	assert.Equal(t, "<body>default</body>", renderString(t, r, root, "layout.tmpl"))
	assert.Equal(t, "<body>page</body>", renderString(t, r, root, "page.tmpl"))
}

func TestRenderIncludeRelativeAndRooted(t *testing.T) {
	root := tree(t, map[string]string{
		"_nav.tmpl":       `<nav>{{ .Page.Path }}</nav>`,
		"docs/_card.tmpl": `<div>{{ include "/_nav" }}</div>`,
		"docs/index.tmpl": `{{ include "_card" }}{{- include "_card.tmpl" -}} !`,
	})
	r := NewTemplateRenderer(".tmpl", ".html")

	assert.Equal(t, "<div><nav>docs/index.tmpl</nav></div><div><nav>docs/index.tmpl</nav></div>!",
		renderString(t, r, root, "docs/index.tmpl"))
}

func TestRenderEscapesData(t *testing.T) {
	root := tree(t, map[string]string{"x.tmpl": `<p>{{ .Site.v }}</p>`})
	r := NewTemplateRenderer(".tmpl", ".html", WithSiteData(map[string]any{"v": "<b>"}))
	assert.Equal(t, "<p>&lt;b&gt;</p>", renderString(t, r, root, "x.tmpl"))
}

func TestRenderMarkdown(t *testing.T) {
	root := tree(t, map[string]string{
		"content/intro.md":  "# Hi\n",
		"content/page.tmpl": `<article>{{ markdown "intro.md" }}</article>`,
		"dyn.tmpl":          `{{ markdown .Site.file }}`,
	})
	r := NewTemplateRenderer(".tmpl", ".html", WithSiteData(map[string]any{"file": "content/intro.md"}))

	assert.Equal(t, "<article><h1>Hi</h1>\n</article>", renderString(t, r, root, "content/page.tmpl"))
	assert.Equal(t, "<h1>Hi</h1>\n", renderString(t, r, root, "dyn.tmpl"))
}

func TestRenderCustomFuncs(t *testing.T) {
	root := tree(t, map[string]string{"x.tmpl": `{{ upper "a" }}`})
	r := NewTemplateRenderer(".tmpl", ".html", WithFuncs(template.FuncMap{"upper": strings.ToUpper}))
	assert.Equal(t, "A", renderString(t, r, root, "x.tmpl"))
}

func TestRenderErrors(t *testing.T) {
	root := tree(t, map[string]string{
		"missing.tmpl":   `{{ include "_nope" }}`,
		"noparent.tmpl":  `{{ extends "_nope" }}`,
		"a.tmpl":         `{{ include "b" }}`,
		"b.tmpl":         `{{ include "a" }}`,
		"self.tmpl":      `{{ extends "self" }}`,
		"broken.tmpl":    `{{ if }}`,
		"exec.tmpl":      `{{ template "undefined" . }}`,
		"escape.tmpl":    `{{ include "../../x" }}`,
		"missingmd.tmpl": `{{ markdown "gone.md" }}`,
	})
	r := NewTemplateRenderer(".tmpl", ".html")

	tests := []struct {
		doc  string
		want error
	}{
		{"missing.tmpl", ErrTemplateNotFound},
		{"noparent.tmpl", ErrTemplateNotFound},
		{"a.tmpl", ErrIncludeCycle},
		{"self.tmpl", ErrExtendsCycle},
		{"broken.tmpl", ErrParse},
		{"exec.tmpl", ErrExecute},
		{"escape.tmpl", ErrTemplateNotFound},
		{"missingmd.tmpl", ErrTemplateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			_, err := r.Render(context.Background(), load(t, root, tt.doc), root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRenderUsesScannedContent(t *testing.T) {
	root := tree(t, map[string]string{"p.tmpl": "disk"})
	r := NewTemplateRenderer(".tmpl", ".html")

	out, err := r.Render(context.Background(), docs.Document{Path: "p.tmpl", Content: []byte("scanned")}, root)
	require.NoError(t, err)
	assert.Equal(t, "scanned", string(out))
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTemplateRenderer(".tmpl", ".html").Render(ctx, docs.Document{Path: "p.tmpl"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
