package models

import (
	"time"

	"github.com/google/uuid"
)

// Usage log status values.
const (
	UsageStatusOK     = "ok"
	UsageStatusFailed = "failed"
)

type UsageLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	KeyID      *uuid.UUID `json:"key_id,omitempty" db:"key_id"`
	RequestID  string     `json:"request_id" db:"request_id"`
	Voice      string     `json:"voice" db:"voice"`
	Provider   string     `json:"provider" db:"provider"`
	Characters int        `json:"characters" db:"characters"`
	AudioBytes int        `json:"audio_bytes" db:"audio_bytes"`
	LatencyMs  int        `json:"latency_ms" db:"latency_ms"`
	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
