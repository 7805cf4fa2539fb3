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
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "walk", Stage("walk")},
		{"Path", KeyPath, "posts/hello.md", Path("posts/hello.md")},
		{"Dir", KeyDir, "posts", Dir("posts")},
		{"URL", KeyURL, "/posts/hello", URL("/posts/hello")},
		{"Slug", KeySlug, "hello", Slug("hello")},
		{"Taxonomy", KeyTaxonomy, "categories", Taxonomy("categories")},
		{"Term", KeyTerm, "kotlin", Term("kotlin")},
		{"Format", KeyFormat, "toml", Format("toml")},
		{"Addr", KeyAddr, ":1313", Addr(":1313")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if got := Count(3).Value.Int64(); got != 3 {
		t.Fatalf("Count: expected 3, got %d", got)
	}
	if got := DurationMS(1.5).Value.Float64(); got != 1.5 {
		t.Fatalf("DurationMS: expected 1.5, got %f", got)
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("expected empty error value, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("expected boom, got %q", got)
	}
}
