package render

import "errors"

var (
	// ErrTemplateNotFound indicates an extended or included document does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrIncludeCycle indicates documents include each other.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrExtendsCycle indicates a layout chain that extends itself.
	ErrExtendsCycle = errors.New("extends cycle")

	// ErrParse indicates a document is not a valid template.
	ErrParse = errors.New("template parse failed")

	// ErrExecute indicates executing the template failed.
	ErrExecute = errors.New("template execution failed")
)
