// Package permalink validates page permalinks and maps them to output files.
package permalink

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// IndexFile is appended to permalinks ending in "/".
const IndexFile = "index.html"

// segments is the shape check; dot rules are applied separately since RE2 has no lookahead.
var segments = regexp.MustCompile(`(?i)^/(?:[a-z0-9\-_.]+/?)+$`)

// Valid reports whether p is an acceptable permalink: "/" alone, or "/"
// followed by segments of letters, digits, "-", "_" and ".", separated or
// terminated by "/". Runs of three or more dots are refused, as is a
// double dot that is not followed by "/" or the end. "." and ".." segments
// are refused so a permalink can never walk back up the tree.
func Valid(p string) bool {
	if p == "/" {
		return true
	}
	if !segments.MatchString(p) {
		return false
	}
	if !validDots(p) {
		return false
	}
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

func validDots(p string) bool {
	for i := 0; i < len(p); {
		if p[i] != '.' {
			i++
			continue
		}
		j := i
		for j < len(p) && p[j] == '.' {
			j++
		}
		switch run := j - i; {
		case run >= 3:
			return false
		case run == 2 && j < len(p) && p[j] != '/':
			return false
		}
		i = j
	}
	return true
}

// Validate returns a RenderError when p is not a valid permalink.
func Validate(p string) error {
	if Valid(p) {
		return nil
	}
	return errors.RenderError(fmt.Sprintf(
		"invalid permalink %q must start with a \"/\" and be a valid path (no special characters)", p)).
		WithContext("permalink", p).
		Build()
}

// Resolve maps a permalink to an absolute file path under outputDir. A
// trailing "/" resolves to index.html inside that directory. Paths that
// would land outside outputDir are refused.
func Resolve(permalink, outputDir string) (string, error) {
	root, err := filepath.Abs(outputDir)
	if err != nil {
		return "", errors.FilesystemConflictError("cannot resolve output directory").WithCause(err).Build()
	}

	rel := strings.TrimPrefix(permalink, "/")
	target := filepath.Join(root, filepath.FromSlash(rel))
	if rel == "" || strings.HasSuffix(rel, "/") {
		target = filepath.Join(target, IndexFile)
	}

	within, err := filepath.Rel(root, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) || within == "." {
		return "", errors.FilesystemConflictError(fmt.Sprintf(
			"File path is outside of the output directory: %s", permalink)).
			WithContext("permalink", permalink).
			WithContext("path", target).
			Build()
	}
	return target, nil
}

// OutputPath returns the resolved file path relative to outputDir, in
// slash form with a leading "/".
func OutputPath(permalink, outputDir string) (string, error) {
	target, err := Resolve(permalink, outputDir)
	if err != nil {
		return "", err
	}
	root, _ := filepath.Abs(outputDir)
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(rel), nil
}

// RootPrefix returns the relative path from the directory containing
// target back to outputDir, always ending in "/" ("./" for files at the
// top level).
func RootPrefix(target, outputDir string) string {
	root, _ := filepath.Abs(outputDir)
	rel, err := filepath.Rel(filepath.Dir(target), root)
	if err != nil || rel == "" {
		rel = "."
	}
	return filepath.ToSlash(rel) + "/"
}
