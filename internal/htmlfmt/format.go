// Package htmlfmt re-indents generated HTML.
package htmlfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// Inline elements stay on the line of the surrounding text.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "i": true, "img": true, "kbd": true,
	"label": true, "mark": true, "q": true, "s": true, "samp": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "time": true, "u": true, "var": true, "wbr": true,
}

// Contents of these elements are copied byte for byte.
var preservedElements = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

// Start tags that end an open p element.
var paragraphClosers = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true, "details": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true, "menu": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true, "ul": true,
}

// impliedEnd reports whether a start tag for next ends the open element top.
func impliedEnd(top, next string) bool {
	switch top {
	case "p":
		return paragraphClosers[next]
	case "li":
		return next == "li"
	case "dt", "dd":
		return next == "dt" || next == "dd"
	case "td", "th":
		switch next {
		case "td", "th", "tr", "thead", "tbody", "tfoot":
			return true
		}
	case "tr":
		switch next {
		case "tr", "thead", "tbody", "tfoot":
			return true
		}
	case "thead", "tbody", "tfoot":
		return next == "thead" || next == "tbody" || next == "tfoot"
	case "option":
		return next == "option" || next == "optgroup"
	case "optgroup":
		return next == "optgroup"
	}
	return false
}

// Formatter re-indents markup. Block elements go on their own line, nested
// one indent unit deeper than their parent.
type Formatter struct {
	unit string
}

// New creates a formatter whose indent unit is size repetitions of char.
func New(size int, char string) *Formatter {
	if size < 0 {
		size = 0
	}
	return &Formatter{unit: strings.Repeat(char, size)}
}

// Format returns the re-indented document, terminated by a newline.
func (f *Formatter) Format(src []byte) ([]byte, error) {
	w := &writer{unit: f.unit}
	z := html.NewTokenizer(bytes.NewReader(src))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenize html: %w", z.Err())
		}

		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			w.inline(collapseSpace(raw))

		case html.CommentToken, html.DoctypeToken:
			w.flush()
			w.line(raw)

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if inlineElements[string(name)] {
				w.inline(raw)
				continue
			}
			w.endImplied(string(name))
			w.flush()
			w.line(raw)

		case html.StartTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			if inlineElements[name] {
				w.inline(raw)
				continue
			}
			w.endImplied(name)
			w.flush()
			switch {
			case preservedElements[name]:
				w.line(raw + verbatim(z, name))
			case voidElements[name]:
				w.line(raw)
			default:
				w.open(name, raw)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if inlineElements[string(name)] {
				w.inline(raw)
				continue
			}
			w.close(string(name), raw)
		}
	}

	w.flush()
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	return w.buf.Bytes(), nil
}

// verbatim copies every token up to and including the end tag closing name.
func verbatim(z *html.Tokenizer, name string) string {
	var sb strings.Builder
	depth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return sb.String()
		}
		sb.Write(z.Raw())
		tag, _ := z.TagName()
		switch {
		case tt == html.StartTagToken && string(tag) == name:
			depth++
		case tt == html.EndTagToken && string(tag) == name:
			if depth == 0 {
				return sb.String()
			}
			depth--
		}
	}
}

type writer struct {
	unit string
	buf  bytes.Buffer
	run  strings.Builder

	// open block elements, innermost last
	stack []string

	// lastOpen is the block element whose start tag was written last; an
	// element holding only inline content closes on the same line.
	lastOpen string
}

func (w *writer) inline(s string) { w.run.WriteString(s) }

func (w *writer) line(s string) {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	w.buf.WriteString(strings.Repeat(w.unit, len(w.stack)))
	w.buf.WriteString(s)
	w.lastOpen = ""
}

func (w *writer) flush() {
	s := strings.TrimSpace(w.run.String())
	w.run.Reset()
	if s != "" {
		w.line(s)
	}
}

func (w *writer) open(name, raw string) {
	w.line(raw)
	w.stack = append(w.stack, name)
	w.lastOpen = name
}

// pop ends the innermost element without writing an end tag.
func (w *writer) pop() {
	top := w.stack[len(w.stack)-1]
	if w.lastOpen == top {
		w.buf.WriteString(strings.TrimSpace(w.run.String()))
		w.run.Reset()
		w.lastOpen = ""
	} else {
		w.flush()
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// endImplied pops the open elements a start tag for name implicitly ends.
func (w *writer) endImplied(name string) {
	for len(w.stack) > 0 && impliedEnd(w.stack[len(w.stack)-1], name) {
		w.pop()
	}
}

func (w *writer) close(name, raw string) {
	i := len(w.stack) - 1
	for i >= 0 && w.stack[i] != name {
		i--
	}
	if i < 0 {
		w.flush()
		w.line(raw)
		return
	}
	for len(w.stack) > i+1 {
		w.pop()
	}
	if w.lastOpen == name {
		w.buf.WriteString(strings.TrimSpace(w.run.String()))
		w.run.Reset()
		w.buf.WriteString(raw)
		w.stack = w.stack[:i]
		w.lastOpen = ""
		return
	}
	w.flush()
	w.stack = w.stack[:i]
	w.line(raw)
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
