package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/validate"
)

// BuildService is the canonical interface for executing builds.
type BuildService interface {
	// Run executes load -> validate -> repo -> sidebar -> render -> linkcheck -> history.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains the per-run overrides of a build.
type Request struct {
	// Formats overrides output.formats when non-empty.
	Formats []string

	// OutputDir overrides output.directory when non-empty.
	OutputDir string

	// Force builds even when the inputs match the last recorded build.
	Force bool

	// Trigger labels what started the build (cli, config, docs, schedule).
	Trigger string
}

// Result contains the outcome of a build.
type Result struct {
	BuildID  string `json:"build_id"`
	Status   Status `json:"status"`
	Snapshot string `json:"snapshot,omitempty"`

	// Files are the absolute paths written (or found current when skipped).
	Files []string `json:"files,omitempty"`

	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`

	Validation *validate.Result  `json:"validation,omitempty"`
	Links      *linkcheck.Report `json:"links,omitempty"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// Status represents the outcome of a build.
type Status string

const (
	// StatusSuccess indicates the build completed without findings.
	StatusSuccess Status = "success"

	// StatusWarning indicates the build completed with validation warnings
	// or broken links.
	StatusWarning Status = "warning"

	// StatusFailed indicates the build encountered an error.
	StatusFailed Status = "failed"

	// StatusSkipped indicates the inputs matched the last recorded build.
	StatusSkipped Status = "skipped"

	// StatusCanceled indicates the build was canceled.
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if the build produced current output.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning || s == StatusSkipped
}

func (s Status) outcome() metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusWarning:
		return metrics.BuildOutcomeWarning
	case StatusSkipped:
		return metrics.BuildOutcomeSkipped
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
