// Package errors provides the classified error primitives used across devflow.
//
// A ClassifiedError carries a category (what part of the workflow failed), a
// severity (whether the current operation or the whole process should stop)
// and a small structured context map. Errors are created through the fluent
// ErrorBuilder:
//
//	err := errors.RenderError("render failed").
//		WithContext("document", "pages/index.tmpl").
//		WithCause(parseErr).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
