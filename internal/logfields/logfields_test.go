package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Format", KeyFormat, "vuepress", Format("vuepress")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Route", KeyRoute, "/guide/", Route("/guide/")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestSnapshotIsShortened(t *testing.T) {
	a := Snapshot("0123456789abcdef0123")
	if a.Value.String() != "0123456789ab" {
		t.Fatalf("unexpected snapshot value %q", a.Value.String())
	}
	if Snapshot("abc").Value.String() != "abc" {
		t.Fatalf("short snapshot must be kept as-is")
	}
}

func TestErrorNil(t *testing.T) {
	if Error(nil).Value.String() != "" {
		t.Fatalf("nil error should produce empty value")
	}
	if Error(errors.New("boom")).Value.String() != "boom" {
		t.Fatalf("error value mismatch")
	}
}
