// Audit logging for build mutations. Every change the orchestrator makes to a
// page document (append, replace, clear) and every generation-service call is
// recorded as a structured JSON line so a build can be reconstructed after the fact.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event.
type AuditEventType string

const (
	// Build lifecycle events
	AuditBuildStart    AuditEventType = "build_start"
	AuditBuildPhase    AuditEventType = "build_phase"
	AuditBuildComplete AuditEventType = "build_complete"
	AuditBuildAbort    AuditEventType = "build_abort"
	AuditBuildPartial  AuditEventType = "build_partial"

	// Document mutation events
	AuditComponentAppend  AuditEventType = "component_append"
	AuditComponentReplace AuditEventType = "component_replace"
	AuditDocumentClear    AuditEventType = "document_clear"
	AuditBatchReplace     AuditEventType = "batch_replace"

	// Class/variable events
	AuditClassCreate   AuditEventType = "class_create"
	AuditClassReuse    AuditEventType = "class_reuse"
	AuditVariableCreate AuditEventType = "variable_create"

	// Generation service events
	AuditGenRequest  AuditEventType = "gen_request"
	AuditGenResponse AuditEventType = "gen_response"
	AuditGenError    AuditEventType = "gen_error"
	AuditGenRetry    AuditEventType = "gen_retry"
)

// AuditEvent represents a structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"` // Unix milliseconds
	EventType  AuditEventType         `json:"event"`
	SessionID  string                 `json:"session,omitempty"` // Build session correlation
	Target     string                 `json:"target,omitempty"`  // Component/class/variable/page ID
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger handles structured audit logging.
type AuditLogger struct {
	sessionID string
}

// InitAudit initializes the audit logging system.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to a build session.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" && a.sessionID != "" {
		event.SessionID = a.sessionID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// BuildEvent logs a build lifecycle event.
func (a *AuditLogger) BuildEvent(eventType AuditEventType, sessionID, phase string, success bool) {
	a.Log(AuditEvent{
		EventType: eventType,
		SessionID: sessionID,
		Success:   success,
		Fields:    map[string]interface{}{"phase": phase},
		Message:   fmt.Sprintf("Build %s: session=%s phase=%s success=%v", eventType, sessionID, phase, success),
	})
}

// DocumentMutation logs an append/replace/clear on the page document.
func (a *AuditLogger) DocumentMutation(eventType AuditEventType, componentID string, index int) {
	a.Log(AuditEvent{
		EventType: eventType,
		Target:    componentID,
		Success:   true,
		Fields:    map[string]interface{}{"index": index},
		Message:   fmt.Sprintf("Document %s: %s at index %d", eventType, componentID, index),
	})
}

// ClassEvent logs a class creation or reuse.
func (a *AuditLogger) ClassEvent(eventType AuditEventType, name, category string) {
	a.Log(AuditEvent{
		EventType: eventType,
		Target:    name,
		Success:   true,
		Fields:    map[string]interface{}{"category": category},
		Message:   fmt.Sprintf("Class %s: %s (%s)", eventType, name, category),
	})
}

// GenerationCall logs a generation service call.
func (a *AuditLogger) GenerationCall(mode string, durationMs int64, success bool, errMsg string) {
	eventType := AuditGenResponse
	if !success {
		eventType = AuditGenError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     mode,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Message:    fmt.Sprintf("Generation %s: mode=%s (%dms, success=%v)", eventType, mode, durationMs, success),
	})
}

// GenerationRetry logs a retry of a generation call after rate limiting or failure.
func (a *AuditLogger) GenerationRetry(mode string, attempt int, backoffMs int64, reason string) {
	a.Log(AuditEvent{
		EventType: AuditGenRetry,
		Target:    mode,
		Success:   true,
		Fields:    map[string]interface{}{"attempt": attempt, "backoff_ms": backoffMs, "reason": reason},
		Message:   fmt.Sprintf("Generation retry: mode=%s attempt=%d backoff=%dms (%s)", mode, attempt, backoffMs, reason),
	})
}
