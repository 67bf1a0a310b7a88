package player

import (
	"errors"
	"time"
)

// Operation errors
var (
	ErrEmptyURI        = errors.New("empty stream URI")
	ErrNotPlaying      = errors.New("playback is not active")
	ErrRecordingActive = errors.New("a recording session is already active")
	ErrNoRecording     = errors.New("no active recording session")
	ErrEngineClosed    = errors.New("engine is closed")
)

// ErrorCategory classifies engine errors by origin and recovery policy.
type ErrorCategory int

const (
	CategoryConfig ErrorCategory = iota
	CategoryTransport
	CategoryTerminal
	CategoryRecording
	CategoryEqualizer
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryTransport:
		return "transport"
	case CategoryTerminal:
		return "terminal"
	case CategoryRecording:
		return "recording"
	case CategoryEqualizer:
		return "equalizer"
	default:
		return "unknown"
	}
}

// ErrorSeverity represents the severity level of engine errors.
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a classified engine error. Transport errors are recovered
// internally via the reconnect policy and surface as informational status
// until the attempt budget is exhausted; every other category surfaces
// immediately with no retry.
type Error struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	Retryable bool
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new classified engine error. Transport errors default
// to retryable unless the cause is marked non-retryable by the source.
func NewError(err error, category ErrorCategory, severity ErrorSeverity) *Error {
	return &Error{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Retryable: category == CategoryTransport,
	}
}
