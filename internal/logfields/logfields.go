package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRoute      = "route"
	KeyImportPath = "import_path"
	KeyPermalink  = "permalink"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPages      = "pages"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Route(origin string) slog.Attr    { return slog.String(KeyRoute, origin) }
func ImportPath(p string) slog.Attr    { return slog.String(KeyImportPath, p) }
func Permalink(p string) slog.Attr     { return slog.String(KeyPermalink, p) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
