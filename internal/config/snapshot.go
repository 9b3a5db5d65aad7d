package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the build-affecting configuration
// fields. The site definition is hashed separately by the build since its
// resolved form depends on the docs tree. Formats are order-insensitive.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	w("docs.dir", c.DocsDir())
	w("docs.detect_repo", strconv.FormatBool(c.Docs.DetectRepo))
	w("output.directory", c.OutputDir())
	formats := append([]string{}, c.Output.Formats...)
	sort.Strings(formats)
	w("output.formats", strings.Join(formats, ","))
	w("site_file", c.Resolve(c.SiteFile))
	return hex.EncodeToString(h.Sum(nil))
}
