package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/queue"
	"github.com/odiadev/tts-gateway/internal/usage"
)

// UsageWorker persists usage records enqueued by the gateway and bumps
// per-key counters for quota enforcement.
type UsageWorker struct {
	svc *usage.Service
}

func NewUsageWorker(svc *usage.Service) *UsageWorker {
	return &UsageWorker{svc: svc}
}

func (w *UsageWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.UsageRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	l := models.UsageLog{
		RequestID:  payload.RequestID,
		Voice:      payload.Voice,
		Provider:   payload.Provider,
		Characters: payload.Characters,
		AudioBytes: payload.AudioBytes,
		LatencyMs:  payload.LatencyMs,
		Status:     payload.Status,
	}

	var keyID *uuid.UUID
	if payload.KeyID != "" {
		id, err := uuid.Parse(payload.KeyID)
		if err != nil {
			return fmt.Errorf("parse key ID: %w", err)
		}
		keyID = &id
	}
	l.KeyID = keyID

	if err := w.svc.Record(ctx, l); err != nil {
		return err
	}

	if keyID != nil && payload.Status == models.UsageStatusOK {
		if err := w.svc.IncrementKeyUsage(ctx, *keyID); err != nil {
			return err
		}
	}

	slog.Info("usage recorded", "request_id", payload.RequestID, "voice", payload.Voice, "status", payload.Status)
	return nil
}
