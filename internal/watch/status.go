package watch

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/version"
)

// HealthStatus represents the overall health of watch mode.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// BuildSummary describes the most recent build.
type BuildSummary struct {
	ID       string        `json:"id"`
	Status   build.Status  `json:"status"`
	Trigger  string        `json:"trigger"`
	Files    int           `json:"files"`
	Error    string        `json:"error,omitempty"`
	Finished time.Time     `json:"finished"`
	Duration time.Duration `json:"duration"`
}

// LinkCheckSummary describes the most recent periodic link check.
type LinkCheckSummary struct {
	Links    int       `json:"links"`
	Broken   int       `json:"broken"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status    HealthStatus      `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Builds    int               `json:"builds"`
	LastBuild *BuildSummary     `json:"last_build,omitempty"`
	LastCheck *LinkCheckSummary `json:"last_link_check,omitempty"`
}

// Status tracks watch mode state for the health endpoint.
type Status struct {
	mu        sync.RWMutex
	started   time.Time
	builds    int
	lastBuild *BuildSummary
	lastCheck *LinkCheckSummary
}

// NewStatus creates a status tracker starting now.
func NewStatus() *Status { return &Status{started: time.Now()} }

// RecordBuild stores the outcome of a build. res may be nil when the build
// failed before producing a result.
func (s *Status) RecordBuild(trigger string, res *build.Result, err error) {
	sum := &BuildSummary{Trigger: trigger, Status: build.StatusFailed, Finished: time.Now()}
	if res != nil {
		sum.ID, sum.Status, sum.Files, sum.Duration = res.BuildID, res.Status, len(res.Files), res.Duration
	}
	if err != nil {
		sum.Error = err.Error()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	s.lastBuild = sum
}

// RecordLinkCheck stores the outcome of a periodic link check.
func (s *Status) RecordLinkCheck(report *linkcheck.Report, err error) {
	sum := &LinkCheckSummary{Finished: time.Now()}
	if report != nil {
		sum.Links = len(report.Results)
		sum.Broken = len(report.Broken())
	}
	if err != nil {
		sum.Error = err.Error()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = sum
}

// Health returns the current health snapshot. The last build failing
// degrades health; broken links do not.
func (s *Status) Health() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Version:   version.Version,
		Builds:    s.builds,
	}
	if s.lastBuild != nil {
		b := *s.lastBuild
		resp.LastBuild = &b
		if !b.Status.IsSuccess() {
			resp.Status = HealthStatusDegraded
		}
	}
	if s.lastCheck != nil {
		c := *s.lastCheck
		resp.LastCheck = &c
	}
	return resp
}
