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
		{"RunID", KeyRunID, "r-1", RunID("r-1")},
		{"Route", KeyRoute, "src/index.js", Route("src/index.js")},
		{"ImportPath", KeyImportPath, "dist/index.yaml", ImportPath("dist/index.yaml")},
		{"Permalink", KeyPermalink, "/about/", Permalink("/about/")},
		{"Stage", KeyStage, "generate", Stage("generate")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: expected key %s, got %s", c.name, c.attrKey, c.attr.Key)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Errorf("%s: expected value %s, got %s", c.name, c.attrVal, c.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Pages(3); a.Key != KeyPages || a.Value.Int64() != 3 {
		t.Errorf("unexpected Pages attr: %v", a)
	}
	if a := Count(7); a.Key != KeyCount || a.Value.Int64() != 7 {
		t.Errorf("unexpected Count attr: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Errorf("unexpected DurationMS attr: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Errorf("expected empty string for nil error, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Errorf("expected boom, got %q", a.Value.String())
	}
}
