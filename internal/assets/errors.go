package assets

import "errors"

var (
	// ErrCompilerNotFound indicates the stylesheet compiler was not detected on PATH.
	ErrCompilerNotFound = errors.New("stylesheet compiler not found")
	// ErrCompilerFailed indicates the stylesheet compiler returned a non-zero exit status.
	ErrCompilerFailed = errors.New("stylesheet compilation failed")
	// ErrOptimizerFailed indicates the image optimizer command failed.
	ErrOptimizerFailed = errors.New("image optimizer failed")
	// ErrOutsideRoot indicates a clean target resolved outside the project root.
	ErrOutsideRoot = errors.New("path outside project root")
	// ErrReported marks a task failure whose details were already sent to
	// the notifier by the task itself.
	ErrReported = errors.New("failures reported")
)
