package queue

const (
	TypeUsageRecord = "usage:record"
)

// UsageRecordPayload carries one synthesis outcome to the worker, which
// writes the usage log and bumps the key counter. KeyID is empty for
// demo-mode and static-key requests.
type UsageRecordPayload struct {
	KeyID      string `json:"key_id,omitempty"`
	RequestID  string `json:"request_id"`
	Voice      string `json:"voice"`
	Provider   string `json:"provider"`
	Characters int    `json:"characters"`
	AudioBytes int    `json:"audio_bytes"`
	LatencyMs  int    `json:"latency_ms"`
	Status     string `json:"status"`
}
