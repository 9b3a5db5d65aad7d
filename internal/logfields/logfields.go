package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyFormat     = "format"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeySnapshot   = "snapshot"
	KeyIssues     = "issues"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Snapshot(s string) slog.Attr     { return slog.String(KeySnapshot, shortHash(s)) }
func Issues(n int) slog.Attr          { return slog.Int(KeyIssues, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

func shortHash(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
