// Package logger provides the logging interface shared by every agclean
// component. Backends include console output, a rotating log file and a
// recording logger for tests.
package logger

import (
	"fmt"
	"log"
)

// Logger defines the interface for leveled logging across agclean components.
// Implementations must never receive cookie values; callers log names and
// hosts only.
type Logger interface {
	// Debug logs a diagnostic message (e.g., "Loaded existing master key").
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Backed up 12 cookies").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "Could not restore cookie sid").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Session restore failed: ...").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., an open log file).
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console output.
// Debug messages are only written when Verbose is set.
type StandardLogger struct {
	logger *log.Logger
	// Verbose enables Debug output.
	Verbose bool
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// Debug logs a diagnostic message with [DEBUG] prefix when Verbose is set.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.Verbose {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests.
type MockLogger struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		DebugCalls:   make([]string, 0),
		InfoCalls:    make([]string, 0),
		WarningCalls: make([]string, 0),
		ErrorCalls:   make([]string, 0),
	}
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

// All returns every recorded message regardless of level, in level order
// debug, info, warning, error.
func (m *MockLogger) All() []string {
	out := make([]string, 0, len(m.DebugCalls)+len(m.InfoCalls)+len(m.WarningCalls)+len(m.ErrorCalls))
	out = append(out, m.DebugCalls...)
	out = append(out, m.InfoCalls...)
	out = append(out, m.WarningCalls...)
	out = append(out, m.ErrorCalls...)
	return out
}

var _ Logger = (*MockLogger)(nil)
