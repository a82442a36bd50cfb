package errors

import "maps"

// ErrorCategory names the pipeline concern an error belongs to.
type ErrorCategory string

const (
	// CategoryImport covers compiled modules that could not be loaded.
	CategoryImport     ErrorCategory = "import"
	CategoryValidation ErrorCategory = "validation"
	CategoryData       ErrorCategory = "data"
	CategoryRender     ErrorCategory = "render"

	// CategoryDuplicatePermalink and the write categories are run-wide output failures.
	CategoryDuplicatePermalink ErrorCategory = "duplicate_permalink"
	CategoryWritePermission    ErrorCategory = "write_permission"
	CategoryFilesystemConflict ErrorCategory = "filesystem_conflict"
	CategoryWrite              ErrorCategory = "write"

	CategoryConfig   ErrorCategory = "config"
	CategoryCache    ErrorCategory = "cache"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the run before any write
	SeverityError   ErrorSeverity = "error"   // Fails the current route
	SeverityWarning ErrorSeverity = "warning" // Reported, siblings unaffected
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy indicates whether re-running can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
