package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

// Service records synthesis outcomes and maintains per-key usage counters.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Record inserts one usage log row.
func (s *Service) Record(ctx context.Context, l models.UsageLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_logs (key_id, request_id, voice, provider, characters, audio_bytes, latency_ms, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.KeyID, l.RequestID, l.Voice, l.Provider, l.Characters, l.AudioBytes, l.LatencyMs, l.Status,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// IncrementKeyUsage bumps a key's usage counter in a single atomic UPDATE.
// The quota check at request time reads the counter separately, so
// concurrent requests against one key can transiently exceed quota by a
// small margin.
func (s *Service) IncrementKeyUsage(ctx context.Context, keyID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = now() WHERE id = $1`,
		keyID,
	)
	if err != nil {
		return fmt.Errorf("increment key usage: %w", err)
	}
	return nil
}

type Summary struct {
	Voice        string `json:"voice"`
	Status       string `json:"status"`
	TotalCalls   int    `json:"total_calls"`
	TotalChars   int64  `json:"total_characters"`
	TotalAudio   int64  `json:"total_audio_bytes"`
	AvgLatencyMs int    `json:"avg_latency_ms"`
}

// GetSummary aggregates usage since the given time, grouped by voice and
// outcome.
func (s *Service) GetSummary(ctx context.Context, since *time.Time) ([]Summary, error) {
	query := `SELECT voice, status, COUNT(*) as total_calls,
			         COALESCE(SUM(characters), 0) as total_characters,
			         COALESCE(SUM(audio_bytes), 0) as total_audio_bytes,
			         COALESCE(AVG(latency_ms), 0)::int as avg_latency_ms
			  FROM usage_logs`
	args := []interface{}{}

	if since != nil {
		query += " WHERE created_at >= $1"
		args = append(args, *since)
	}
	query += " GROUP BY voice, status ORDER BY total_calls DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Voice, &sum.Status, &sum.TotalCalls, &sum.TotalChars, &sum.TotalAudio, &sum.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
