// Package watch keeps the generated navigation current: it rebuilds when the
// configuration or the docs tree changes, runs periodic link checks and
// serves health and metrics endpoints while running.
package watch
