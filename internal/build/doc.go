// Package build provides the canonical build pipeline for docnav.
//
// A build loads the tool configuration, validates the site definition,
// optionally fills repository metadata, expands auto sidebars for renderers
// that need explicit pages, writes every configured output format and
// records the run in the build history. All execution paths (CLI, watch
// mode, tests) route through BuildService.
package build
