package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"git.home.luguber.info/inful/routegen/internal/permalink"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
	ansiCyan  = "\x1b[36m"
)

// DefaultSummaryMax is how many paths the summary lists before it only counts.
const DefaultSummaryMax = 12

// Summary is the one-line report printed after a run.
type Summary struct {
	Written   []string
	OutputDir string
	// Max caps the listed paths; zero means DefaultSummaryMax.
	Max   int
	Color bool
}

// String renders the summary line, e.g. "3 pages created at public (index.html, a/index.html, b.html)".
func (s Summary) String() string {
	paint := func(code, text string) string {
		if !s.Color {
			return text
		}
		return code + text + ansiReset
	}

	n := len(s.Written)
	count := "No"
	if n > 0 {
		count = fmt.Sprint(n)
	}
	noun := "pages"
	if n == 1 {
		noun = "page"
	}

	dir := s.OutputDir
	if cwd, err := os.Getwd(); err == nil {
		if abs, err := filepath.Abs(s.OutputDir); err == nil {
			if r, err := filepath.Rel(cwd, abs); err == nil {
				dir = filepath.ToSlash(r)
			}
		}
	}

	text := fmt.Sprintf("%s created at %s", paint(ansiCyan, count+" "+noun), paint(ansiCyan, dir))

	limit := s.Max
	if limit <= 0 {
		limit = DefaultSummaryMax
	}
	if n > 0 && n <= limit {
		paths := make([]string, 0, n)
		for _, link := range s.Written {
			p, err := permalink.OutputPath(link, s.OutputDir)
			if err != nil {
				p = link
			}
			paths = append(paths, strings.TrimPrefix(p, "/"))
		}
		text += " " + paint(ansiDim, "("+strings.Join(paths, ", ")+")")
	}
	return text
}

// Print writes the summary line to w.
func (s Summary) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, s.String())
	return err
}

// ColorEnabled reports whether f is an interactive terminal.
func ColorEnabled(f *os.File) bool {
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
