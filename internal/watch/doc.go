// Package watch follows things that change over time: a deployment until it
// settles, and a template file on disk while it is being edited.
package watch
