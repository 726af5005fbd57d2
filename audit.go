package goSession

import (
	"context"
	"time"
)

// Audit event type identifiers. Stable strings; sink consumers key on them.
const (
	auditEventIssue            = "session.issue"
	auditEventVerifyDenied     = "session.verify_denied"
	auditEventRotateSuccess    = "session.rotate"
	auditEventRotateInvalid    = "session.rotate_invalid"
	auditEventReplayDetected   = "session.replay_detected"
	auditEventRevoked          = "session.revoked"
	auditEventStoreUnavailable = "session.store_unavailable"
)

// emitAudit builds and dispatches one audit event. metadata is a constructor
// func so callers pay the map allocation only when auditing is on.
func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	chainID string,
	cause error,
	metadata func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		SubjectID: subjectID,
		ChainID:   chainID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	m.audit.Emit(ctx, event)
}
