// Package render executes template documents with layout inheritance,
// includes and markdown inlining.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/devflow/internal/depgraph"
	"git.home.luguber.info/inful/devflow/internal/docs"
	"git.home.luguber.info/inful/devflow/internal/markdown"
)

// Renderer turns one document of the tree rooted at baseDir into markup.
type Renderer interface {
	Render(ctx context.Context, doc docs.Document, baseDir string) ([]byte, error)
}

// Page describes the document being rendered.
type Page struct {
	Path   string
	Output string
	Dir    string
}

// Data is the value templates execute against.
type Data struct {
	Site map[string]any
	Page Page
}

// TemplateRenderer renders documents with html/template.
type TemplateRenderer struct {
	ext       string
	outputExt string
	site      map[string]any
	md        *markdown.Renderer
	funcs     template.FuncMap
}

// Option configures a TemplateRenderer.
type Option func(*TemplateRenderer)

// WithSiteData sets the map exposed as .Site.
func WithSiteData(site map[string]any) Option {
	return func(r *TemplateRenderer) { r.site = site }
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *TemplateRenderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// WithMarkdown replaces the markdown converter.
func WithMarkdown(md *markdown.Renderer) Option {
	return func(r *TemplateRenderer) { r.md = md }
}

// NewTemplateRenderer creates a renderer for documents with extension ext
// whose output uses outputExt.
func NewTemplateRenderer(ext, outputExt string, opts ...Option) *TemplateRenderer {
	r := &TemplateRenderer{
		ext:       ext,
		outputExt: outputExt,
		md:        markdown.New(markdown.Options{Unsafe: true}),
		funcs:     template.FuncMap{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render executes doc. The layout chain named by extends directives is
// parsed root-most first so that nearer define blocks override, then the
// root-most layout is executed.
func (r *TemplateRenderer) Render(ctx context.Context, doc docs.Document, baseDir string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &session{r: r, baseDir: baseDir, loaded: map[string]bool{}, sources: map[string][]byte{doc.Path: doc.Content}}

	chain, err := s.layoutChain(doc.Path)
	if err != nil {
		return nil, err
	}

	root := chain[len(chain)-1]
	s.tpl = template.New("devflow").Funcs(r.funcs).Funcs(template.FuncMap{"markdown": s.markdown})
	for i := len(chain) - 1; i >= 0; i-- {
		if err := s.load(chain[i], []string{chain[i]}); err != nil {
			return nil, err
		}
	}

	data := Data{
		Site: r.site,
		Page: Page{Path: doc.Path, Output: docs.OutputPath(doc.Path, r.outputExt), Dir: doc.Dir()},
	}
	var buf bytes.Buffer
	if err := s.tpl.ExecuteTemplate(&buf, root, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExecute, doc.Path, err)
	}
	return buf.Bytes(), nil
}

// session holds the state of one Render call.
type session struct {
	r       *TemplateRenderer
	baseDir string
	tpl     *template.Template
	loaded  map[string]bool
	sources map[string][]byte
}

func (s *session) read(rel string) ([]byte, error) {
	if b, ok := s.sources[rel]; ok {
		return b, nil
	}
	b, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, rel)
		}
		return nil, err
	}
	s.sources[rel] = b
	return b, nil
}

// layoutChain follows extends directives from rel, returning rel first and
// the root-most layout last.
func (s *session) layoutChain(rel string) ([]string, error) {
	chain := []string{rel}
	seen := map[string]bool{rel: true}
	cur := rel
	for {
		content, err := s.read(cur)
		if err != nil {
			return nil, err
		}
		parent := ""
		for _, d := range depgraph.ParseDirectives(content) {
			if d.Kind == depgraph.KindExtends {
				parent = d.Target
				break
			}
		}
		if parent == "" {
			return chain, nil
		}
		resolved, ok := depgraph.ResolvePath(cur, parent, s.r.ext)
		if !ok {
			return nil, fmt.Errorf("%w: %s extends %q outside the tree", ErrTemplateNotFound, cur, parent)
		}
		if seen[resolved] {
			return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, strings.Join(append(chain, resolved), " -> "))
		}
		seen[resolved] = true
		chain = append(chain, resolved)
		cur = resolved
	}
}

// load parses rel and, depth first, every document it includes. stack is
// the include path leading to rel.
func (s *session) load(rel string, stack []string) error {
	if s.loaded[rel] {
		return nil
	}
	content, err := s.read(rel)
	if err != nil {
		return err
	}

	var includes []string
	var rewriteErr error
	text := depgraph.ReplaceDirectives(content, func(d depgraph.Directive) string {
		resolved, ok := depgraph.ResolvePath(rel, d.Target, s.r.ext)
		if !ok && d.Kind != depgraph.KindExtends && rewriteErr == nil {
			rewriteErr = fmt.Errorf("%w: %s references %q outside the tree", ErrTemplateNotFound, rel, d.Target)
		}
		open, closing := trimMarkers(d.Raw)
		switch d.Kind {
		case depgraph.KindInclude:
			includes = append(includes, resolved)
			return fmt.Sprintf("%s template %q . %s", open, resolved, closing)
		case depgraph.KindMarkdown:
			return fmt.Sprintf("%s markdown %q %s", open, "/"+resolved, closing)
		default:
			// extends is resolved by layoutChain
			return ""
		}
	})
	if rewriteErr != nil {
		return rewriteErr
	}

	if _, err := s.tpl.New(rel).Parse(string(text)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParse, rel, err)
	}
	s.loaded[rel] = true

	for _, inc := range includes {
		for _, p := range stack {
			if p == inc {
				return fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(append(stack, inc), " -> "))
			}
		}
		next := append(append([]string(nil), stack...), inc)
		if err := s.load(inc, next); err != nil {
			return err
		}
	}
	return nil
}

// markdown renders a markdown source. Literal directives are rewritten to
// tree-rooted paths; dynamic calls resolve against the tree root too.
func (s *session) markdown(p string) (template.HTML, error) {
	resolved, ok := depgraph.ResolvePath("", "/"+strings.TrimLeft(p, "/"), s.r.ext)
	if !ok {
		return "", fmt.Errorf("%w: markdown %q outside the tree", ErrTemplateNotFound, p)
	}
	src, err := s.read(resolved)
	if err != nil {
		return "", err
	}
	out, err := s.r.md.Render(src)
	if err != nil {
		return "", err
	}
	// #nosec G203 -- markdown output is trusted site content
	return template.HTML(out), nil
}

func trimMarkers(raw string) (open, closing string) {
	open, closing = "{{", "}}"
	if strings.HasPrefix(raw, "{{-") {
		open = "{{-"
	}
	if strings.HasSuffix(raw, "-}}") {
		closing = "-}}"
	}
	return open, closing
}
