// Package docs discovers the documents of a template tree and classifies
// them as compilable pages, partial fragments or plain sources.
package docs

import (
	"path"
	"strings"
)

// Document is a single source file of the template tree.
type Document struct {
	// Path is slash separated and relative to the tree root.
	Path string
	// Abs is the absolute filesystem path.
	Abs string
	// Content is the raw text at scan time.
	Content []byte
	// Fingerprint is the hex sha256 of Content.
	Fingerprint string
}

// Dir returns the slash separated directory of the document, "." at the root.
func (d Document) Dir() string {
	return path.Dir(d.Path)
}

// Ext returns the file extension including the leading dot.
func (d Document) Ext() string {
	return path.Ext(d.Path)
}

// OutputPath maps a relative document path to its output path by swapping
// the extension.
func OutputPath(rel, outputExt string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + outputExt
}
