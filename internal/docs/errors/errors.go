package errors

// Package errors provides sentinel errors for template tree discovery.

import "errors"

var (
	// ErrTreeNotFound indicates the template base directory does not exist.
	ErrTreeNotFound = errors.New("template tree not found")

	// ErrTreeWalkFailed indicates filesystem traversal of the template tree failed.
	ErrTreeWalkFailed = errors.New("template tree walk failed")

	// ErrFileReadFailed indicates reading content from a discovered document failed.
	ErrFileReadFailed = errors.New("document read failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the tree root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
