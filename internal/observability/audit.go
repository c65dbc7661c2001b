package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventSetup          AuditEventType = "settings.setup"
	AuditEventMigrate        AuditEventType = "settings.migrate"
	AuditEventConfigChange   AuditEventType = "settings.change"
	AuditEventSessionOpen    AuditEventType = "session.open"
	AuditEventSessionClose   AuditEventType = "session.close"
	AuditEventRequestFailure AuditEventType = "request.failure"
)

// AuditEvent is one audit log line.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditLogger writes audit events as JSON lines. Settings are owned by
// the host, so this is the provider's only record of what it asked the
// host to persist.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // file path, "stdout" or "stderr"
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stderr",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}
	if !config.Enabled {
		return &AuditLogger{enabled: false}, nil
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stderr", "":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return &AuditLogger{writer: writer, sessionID: sessionID, enabled: true}, nil
}

// NewAuditWriter creates an enabled audit logger writing to w.
func NewAuditWriter(w io.Writer, sessionID string) *AuditLogger {
	return &AuditLogger{writer: w, sessionID: sessionID, enabled: true}
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogSetup records that default settings were declared to the host.
func (l *AuditLogger) LogSetup(_ context.Context, settings map[string]any) {
	l.Log(&AuditEvent{
		EventType: AuditEventSetup,
		Success:   true,
		Message:   "Declared default settings",
		Details:   map[string]any{"settings": settings},
	})
}

// LogMigrate records a settings migration.
func (l *AuditLogger) LogMigrate(_ context.Context, fromVersion, toVersion string, err error) {
	event := &AuditEvent{
		EventType: AuditEventMigrate,
		Success:   err == nil,
		Message:   fmt.Sprintf("Migrated settings %s -> %s", fromVersion, toVersion),
		Details:   map[string]any{"from": fromVersion, "to": toVersion},
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogConfigChange records a settings change sent to the host.
func (l *AuditLogger) LogConfigChange(_ context.Context, fields []string, settings map[string]any) {
	l.Log(&AuditEvent{
		EventType: AuditEventConfigChange,
		Success:   true,
		Message:   fmt.Sprintf("Sent settings change (%d fields)", len(fields)),
		Details:   map[string]any{"fields": fields, "settings": settings},
	})
}

// LogSession records a host session opening or closing.
func (l *AuditLogger) LogSession(_ context.Context, open bool, remote string) {
	typ, msg := AuditEventSessionOpen, "Host session opened"
	if !open {
		typ, msg = AuditEventSessionClose, "Host session closed"
	}
	l.Log(&AuditEvent{
		EventType: typ,
		Success:   true,
		Message:   msg,
		Details:   map[string]any{"remote": remote},
	})
}

// LogRequestFailure records a host message that could not be served.
func (l *AuditLogger) LogRequestFailure(_ context.Context, msgType string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventRequestFailure,
		Success:     false,
		Message:     fmt.Sprintf("Request %s failed", msgType),
		ErrorDetail: err.Error(),
	})
}

// Close closes the underlying file, if any.
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
