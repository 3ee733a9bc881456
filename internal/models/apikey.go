package models

import (
	"time"

	"github.com/google/uuid"
)

// API key status values.
const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	KeyHash    string     `json:"-" db:"key_hash"`
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"`
	Status     string     `json:"status" db:"status"`
	UsageCount int64      `json:"usage_count" db:"usage_count"`
	Quota      int64      `json:"quota" db:"quota"` // 0 means unlimited
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// QuotaExhausted reports whether the key has used up its request quota.
// A zero quota means unlimited.
func (k *APIKey) QuotaExhausted() bool {
	return k.Quota > 0 && k.UsageCount >= k.Quota
}
