package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestSummary_String(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		written  []string
		contains []string
		absent   []string
	}{
		{
			name:     "none",
			contains: []string{"No pages created at "},
			absent:   []string{"("},
		},
		{
			name:     "one",
			written:  []string{"/"},
			contains: []string{"1 page created at ", "(index.html)"},
		},
		{
			name:     "several",
			written:  []string{"/", "/a/", "/b.html"},
			contains: []string{"3 pages created at ", "(index.html, a/index.html, b.html)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary{Written: tt.written, OutputDir: dir}.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("summary %q missing %q", got, want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("summary %q should not contain %q", got, bad)
				}
			}
			if strings.Contains(got, "\x1b[") {
				t.Errorf("uncolored summary contains escape codes: %q", got)
			}
		})
	}
}

func TestSummary_ListCap(t *testing.T) {
	var written []string
	for i := range 13 {
		written = append(written, fmt.Sprintf("/p%d/", i))
	}
	got := Summary{Written: written, OutputDir: t.TempDir()}.String()
	if strings.Contains(got, "(") {
		t.Errorf("13 pages should not be listed: %q", got)
	}
	got = Summary{Written: written, OutputDir: t.TempDir(), Max: 20}.String()
	if !strings.Contains(got, "p12/index.html") {
		t.Errorf("raised cap should list pages: %q", got)
	}
}

func TestSummary_ColorAndPrint(t *testing.T) {
	var buf bytes.Buffer
	s := Summary{Written: []string{"/"}, OutputDir: t.TempDir(), Color: true}
	if err := s.Print(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), ansiCyan) || !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("unexpected colored output %q", buf.String())
	}
	if ColorEnabled(nil) {
		t.Error("nil file must not enable color")
	}
}
