package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter writing to stderr.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// WithOutput redirects user-facing messages.
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return 1
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2
	case CategoryImport, CategoryData, CategoryRender:
		return 3
	case CategoryDuplicatePermalink:
		return 4
	case CategoryWritePermission:
		return 5
	case CategoryFilesystemConflict, CategoryWrite:
		return 6
	case CategoryConfig:
		return 7
	case CategoryCache:
		return 9
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError renders every distinct message of err as a bullet list.
// Aggregated errors (Unwrap() []error) contribute one bullet per member.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	lines := make([]string, 0, 4)
	for _, e := range flatten(err) {
		lines = append(lines, "•\t"+a.describe(e))
	}
	return strings.Join(lines, "\n")
}

func (a *CLIErrorAdapter) describe(err error) string {
	classified, ok := err.(*ClassifiedError)
	if !ok {
		return err.Error()
	}
	if a.verbose {
		return classified.Error()
	}
	if classified.cause != nil {
		return fmt.Sprintf("%s: %v", classified.message, classified.cause)
	}
	return classified.message
}

// flatten expands aggregates into their members, preserving order.
func flatten(err error) []error {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range multi.Unwrap() {
			out = append(out, flatten(inner)...)
		}
		return out
	}
	return []error{err}
}

// Report logs err and prints it for the user, returning the exit code.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if a.verbose {
		a.logError(err)
	}
	fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err and exits the process with the matching code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	for _, e := range flatten(err) {
		if classified, ok := e.(*ClassifiedError); ok {
			attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
			for k, v := range classified.Context() {
				attrs = append(attrs, slog.Any(k, v))
			}
			a.logger.LogAttrs(context.Background(), a.slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
			continue
		}
		a.logger.Error("Unclassified error", "error", e)
	}
}

func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
