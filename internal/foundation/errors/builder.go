package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// UserAction marks the error as needing a change by the user before a rerun.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Route-scoped constructors. These fail one route and leave siblings running.

// ImportError creates an error for a compiled module that cannot be loaded.
func ImportError(message string) *ErrorBuilder {
	return NewError(CategoryImport, message).UserAction()
}

// ValidationError creates an error for a module violating the export contract.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).UserAction()
}

// DataError creates an error for unusable collection or content data.
func DataError(message string) *ErrorBuilder {
	return NewError(CategoryData, message).UserAction()
}

// RenderError creates an error for a failed url or html call.
func RenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message).UserAction()
}

// Run-wide constructors. These are fatal and prevent any write.

// DuplicatePermalinkError creates an error for overlapping permalinks.
func DuplicatePermalinkError(message string) *ErrorBuilder {
	return NewError(CategoryDuplicatePermalink, message).Fatal().UserAction()
}

// WritePermissionError creates an error for a failed dry-run probe.
func WritePermissionError(message string) *ErrorBuilder {
	return NewError(CategoryWritePermission, message).Fatal().UserAction()
}

// FilesystemConflictError creates an error for file/directory collisions.
func FilesystemConflictError(message string) *ErrorBuilder {
	return NewError(CategoryFilesystemConflict, message).Fatal().UserAction()
}

// WriteError creates a non-fatal per-file write failure.
func WriteError(message string) *ErrorBuilder {
	return NewError(CategoryWrite, message).Warning().WithRetry(RetryImmediate)
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// CacheError creates an incremental cache store error.
func CacheError(message string) *ErrorBuilder {
	return NewError(CategoryCache, message).Warning().WithRetry(RetryImmediate)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
