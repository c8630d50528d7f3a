// Package assets implements the workflow tasks around the template
// pipeline: stylesheet compilation through an external compiler,
// incremental image processing, and cleaning generated output.
package assets
