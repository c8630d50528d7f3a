// Package devserver runs the development session: a static file server with
// live reload, a recursive filesystem watcher routing changes to tasks, and a
// single worker executing those tasks serially.
package devserver
