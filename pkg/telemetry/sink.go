package telemetry

import (
	"fmt"
	"time"
)

// SessionUpdater stores the latest sample on a session row.
// Implemented by the session store.
type SessionUpdater interface {
	UpdateQualityMetrics(orgID, sessionID string, sample Sample) error
}

// Sink accepts telemetry samples from the transport layer. Writes are
// last-write-wins with no merge or conflict resolution.
type Sink struct {
	sessions SessionUpdater
}

// NewSink creates a Sink.
func NewSink(sessions SessionUpdater) *Sink {
	return &Sink{sessions: sessions}
}

// Record stores the sample on the session, stamping CapturedAt when the
// reporter omitted it.
func (s *Sink) Record(orgID, sessionID string, sample Sample) error {
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now()
	}
	if err := s.sessions.UpdateQualityMetrics(orgID, sessionID, sample); err != nil {
		return fmt.Errorf("record quality metrics: %w", err)
	}
	return nil
}
