package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEvent records an authorization decision or a committed ledger action.
type AuditEvent struct {
	EventID   string            // assigned at log time
	Timestamp time.Time
	EventType string // e.g. "Authorization", "RecordCreated", "MonthlyFinalized"
	TxID      string
	EntityID  string // caller credential identity
	Result    string // "success" or "failure"
	Reason    string
	Metadata  map[string]string
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// StdoutAuditLogger is a simple implementation that logs to stdout.
type StdoutAuditLogger struct{}

func (l *StdoutAuditLogger) LogEvent(event AuditEvent) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	fmt.Printf("[AUDIT] [%s] [%s] id=%s tx=%s entity=%s result=%s reason=%s metadata=%+v\n",
		event.Timestamp.Format(time.RFC3339), event.EventType, event.EventID,
		event.TxID, event.EntityID, event.Result, event.Reason, event.Metadata)
}

// NewStdoutAuditLogger returns a new StdoutAuditLogger.
func NewStdoutAuditLogger() AuditLogger {
	return &StdoutAuditLogger{}
}

// NopAuditLogger discards events; used in tests.
type NopAuditLogger struct{}

func (NopAuditLogger) LogEvent(AuditEvent) {}
