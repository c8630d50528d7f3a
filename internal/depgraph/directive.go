package depgraph

import (
	"path"
	"regexp"
	"strings"
)

// Kind is the type of a dependency directive.
type Kind string

const (
	KindExtends  Kind = "extends"
	KindInclude  Kind = "include"
	KindMarkdown Kind = "markdown"
)

// Directive is one dependency reference found in a document.
type Directive struct {
	Kind   Kind
	Target string
	// Raw is the full matched text, including delimiters.
	Raw string
}

var directiveRe = regexp.MustCompile(`\{\{-?\s*(extends|include|markdown)\s+"([^"]+)"\s*-?\}\}`)

// ParseDirectives returns the directives of content in source order.
func ParseDirectives(content []byte) []Directive {
	matches := directiveRe.FindAllSubmatch(content, -1)
	out := make([]Directive, 0, len(matches))
	for _, m := range matches {
		out = append(out, Directive{Kind: Kind(m[1]), Target: string(m[2]), Raw: string(m[0])})
	}
	return out
}

// ReplaceDirectives rewrites every directive of content with the result of fn.
func ReplaceDirectives(content []byte, fn func(Directive) string) []byte {
	return directiveRe.ReplaceAllFunc(content, func(raw []byte) []byte {
		m := directiveRe.FindSubmatch(raw)
		return []byte(fn(Directive{Kind: Kind(m[1]), Target: string(m[2]), Raw: string(raw)}))
	})
}

// ResolvePath resolves target as referenced from the document at from.
// A leading "/" is relative to the tree root, anything else to the
// directory of from. A target without extension gets ext. The result is
// slash separated and clean; ok is false when it escapes the tree root.
func ResolvePath(from, target, ext string) (resolved string, ok bool) {
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		p = path.Join(path.Dir(from), target)
	}
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return p, false
	}
	if path.Ext(p) == "" {
		p += ext
	}
	return p, true
}
