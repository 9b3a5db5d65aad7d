package linkcheck

import "time"

// BrokenLinkEvent represents a broken navigation link discovered during a
// check. It is published to NATS for downstream processing such as opening
// issues against the documentation repository.
type BrokenLinkEvent struct {
	// Link information
	URL    string `json:"url"`    // the broken link as declared
	Kind   string `json:"kind"`   // internal|external
	Status int    `json:"status"` // HTTP status code (0 for non-HTTP errors)
	Error  string `json:"error"`

	// Where the link is declared
	Path  string `json:"path"`            // e.g. themeConfig.nav[3].items[0].link
	Text  string `json:"text"`            // menu text
	Group string `json:"group,omitempty"` // enclosing group label
	Site  string `json:"site"`            // site title

	// Verification metadata
	Timestamp     time.Time `json:"timestamp"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`

	BuildID string `json:"build_id,omitempty"`
}
