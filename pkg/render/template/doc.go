// Package template defines the templating seam used by the component tree.
// The pongo2-backed implementation lives in the gotemplate subpackage.
package template
