// Package telemetry accepts periodic connection-quality samples for
// running sessions. Only the latest sample per session is retained.
package telemetry

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Sample is a single connection-quality measurement reported by the
// transport layer. Stored last-write-wins on the session row.
type Sample struct {
	LatencyMs     int       `json:"latencyMs"`
	FPS           int       `json:"fps"`
	BandwidthKbps int       `json:"bandwidthKbps"`
	PacketLoss    float64   `json:"packetLoss"`
	CapturedAt    time.Time `json:"capturedAt"`
}

// Scan implements the sql.Scanner interface for *Sample used as a GORM
// JSON column.
func (s *Sample) Scan(value any) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for Sample: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for Sample.
func (s Sample) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
