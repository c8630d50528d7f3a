package build

import "errors"

// ErrDocumentMissing indicates an affected path has no document in the tree.
var ErrDocumentMissing = errors.New("document missing")
