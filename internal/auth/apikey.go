package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odiadev/tts-gateway/internal/models"
)

// Static errors.
var (
	ErrUnauthorized  = errors.New("invalid API key")
	ErrQuotaExceeded = errors.New("API key quota exceeded")
)

// Validator checks a caller-supplied raw key and returns its record.
type Validator interface {
	Validate(ctx context.Context, rawKey string) (*models.APIKey, error)
}

// HashKey computes the stored hash of a raw key, salted with the
// server-side pepper. The pepper never leaves the server, so a leaked
// table of hashes cannot be brute-forced against common key formats.
func HashKey(pepper, rawKey string) string {
	h := sha256.Sum256([]byte(pepper + rawKey))
	return hex.EncodeToString(h[:])
}

// StaticValidator accepts keys from a configured allow-list. It carries
// no per-key state beyond valid/invalid.
type StaticValidator struct {
	keys []string
}

func NewStaticValidator(keys []string) *StaticValidator {
	return &StaticValidator{keys: keys}
}

func (v *StaticValidator) Validate(_ context.Context, rawKey string) (*models.APIKey, error) {
	// Compare against every entry so timing does not reveal membership.
	match := false
	for _, k := range v.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(rawKey)) == 1 {
			match = true
		}
	}
	if !match {
		return nil, ErrUnauthorized
	}
	return &models.APIKey{
		Name:      "static",
		KeyPrefix: keyPrefix(rawKey),
		Status:    models.KeyStatusActive,
	}, nil
}

// StoreValidator checks keys against the api_keys table using a peppered
// hash lookup. Any store error fails closed: the caller is rejected, never
// let through.
type StoreValidator struct {
	db     *pgxpool.Pool
	pepper string
}

func NewStoreValidator(db *pgxpool.Pool, pepper string) *StoreValidator {
	return &StoreValidator{db: db, pepper: pepper}
}

func (v *StoreValidator) Validate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	hash := HashKey(v.pepper, rawKey)

	var ak models.APIKey
	err := v.db.QueryRow(ctx,
		`SELECT id, name, key_hash, key_prefix, status, usage_count, quota, last_used_at, created_at
		 FROM api_keys WHERE key_hash = $1`, hash,
	).Scan(&ak.ID, &ak.Name, &ak.KeyHash, &ak.KeyPrefix, &ak.Status, &ak.UsageCount, &ak.Quota, &ak.LastUsedAt, &ak.CreatedAt)
	if err != nil {
		slog.Warn("api key lookup failed", "error", err)
		return nil, ErrUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(ak.KeyHash), []byte(hash)) != 1 {
		return nil, ErrUnauthorized
	}

	if ak.Status != models.KeyStatusActive {
		return nil, ErrUnauthorized
	}

	if ak.QuotaExhausted() {
		return nil, ErrQuotaExceeded
	}

	return &ak, nil
}

// CreateKey issues a new API key and stores only its peppered hash. The
// raw key is returned once and cannot be recovered afterwards.
func (v *StoreValidator) CreateKey(ctx context.Context, name string, quota int64) (string, *models.APIKey, error) {
	raw, err := generateRawKey()
	if err != nil {
		return "", nil, err
	}

	ak := models.APIKey{
		Name:      name,
		KeyHash:   HashKey(v.pepper, raw),
		KeyPrefix: keyPrefix(raw),
		Status:    models.KeyStatusActive,
		Quota:     quota,
	}

	err = v.db.QueryRow(ctx,
		`INSERT INTO api_keys (name, key_hash, key_prefix, status, quota)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, usage_count, created_at`,
		ak.Name, ak.KeyHash, ak.KeyPrefix, ak.Status, ak.Quota,
	).Scan(&ak.ID, &ak.UsageCount, &ak.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("insert api key: %w", err)
	}

	return raw, &ak, nil
}

func generateRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return fmt.Sprintf("odia_%d_%s", time.Now().Unix(), hex.EncodeToString(buf)), nil
}

func keyPrefix(rawKey string) string {
	if len(rawKey) <= 12 {
		return rawKey
	}
	return rawKey[:12]
}
