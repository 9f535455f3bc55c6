package log

// LibraryLogger is a minimal interface for library packages that need to
// report progress/diagnostics without depending on a particular backend.
//
// The mount helper, the mount table and the CLI all accept a LibraryLogger;
// passing nil to a constructor means "build a component logger" (see
// ForComponent).
type LibraryLogger interface {
	// Info logs informational messages (e.g., "Applying mount table...")
	Info(format string, args ...any)

	// Debug logs debug/diagnostic messages (may be no-op in production)
	Debug(format string, args ...any)

	// Warn logs warning messages (non-fatal issues)
	Warn(format string, args ...any)

	// Error logs error messages (failures, but execution continues)
	Error(format string, args ...any)
}

// Named is implemented by loggers that are scoped to a component namespace
// such as "go-chroot.mount".
type Named interface {
	Name() string
}

// NoOpLogger discards all log messages. It is not Named, so ForComponent
// hands it back unchanged and the receiving package stays silent.
type NoOpLogger struct{}

func (NoOpLogger) Info(format string, args ...any)  {}
func (NoOpLogger) Debug(format string, args ...any) {}
func (NoOpLogger) Warn(format string, args ...any)  {}
func (NoOpLogger) Error(format string, args ...any) {}
