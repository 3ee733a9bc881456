package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/config"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/queue"
	"github.com/odiadev/tts-gateway/internal/tts"
)

// Synthesizer is the single operation the gateway needs from the TTS
// layer; the provider cascade satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.SynthesisResult, error)
}

// UsageEnqueuer queues usage records for the background worker.
type UsageEnqueuer interface {
	EnqueueUsageRecord(payload queue.UsageRecordPayload) error
}

type SpeakHandler struct {
	synth  Synthesizer
	limits config.LimitsConfig
	usageQ UsageEnqueuer // nil when redis is unavailable
}

func NewSpeakHandler(synth Synthesizer, limits config.LimitsConfig, usageQ UsageEnqueuer) *SpeakHandler {
	return &SpeakHandler{
		synth:  synth,
		limits: limits,
		usageQ: usageQ,
	}
}

// Speak handles GET /speak, returning raw audio bytes on success.
func (h *SpeakHandler) Speak(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	voice := r.URL.Query().Get("voice")
	if voice == "" {
		voice = tts.DefaultVoice
	}

	result, ok := h.generate(w, r, text, voice)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Request-ID", chimiddleware.GetReqID(r.Context()))
	w.Header().Set("X-Audio-Size", strconv.Itoa(len(result.Audio)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Audio)
}

type apiSpeakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// APISpeak handles POST /api/speak, embedding the audio in a JSON body as
// a base64 data URL for browser callers.
func (h *SpeakHandler) APISpeak(w http.ResponseWriter, r *http.Request) {
	var req apiSpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	voice := req.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}

	result, ok := h.generate(w, r, text, voice)
	if !ok {
		return
	}

	audioBase64 := base64.StdEncoding.EncodeToString(result.Audio)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"audio_url":       fmt.Sprintf("data:%s;base64,%s", result.ContentType, audioBase64),
		"character_count": utf8.RuneCountInString(text),
		"voice":           voice,
		"audio_size":      len(result.Audio),
		"request_id":      chimiddleware.GetReqID(r.Context()),
	})
}

// QuickTest handles GET /test with a canned phrase, bypassing auth so
// operators can verify the pipeline end to end.
func (h *SpeakHandler) QuickTest(w http.ResponseWriter, r *http.Request) {
	result, err := h.synth.Synthesize(r.Context(), tts.SynthesisRequest{
		Text:  "ODIADEV test successful!",
		Voice: tts.DefaultVoice,
	})
	if err != nil {
		errorJSON(w, r, http.StatusInternalServerError, "Test failed - check /diagnose")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Request-ID", chimiddleware.GetReqID(r.Context()))
	w.Header().Set("X-Test-Status", "SUCCESS")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Audio)
}

// generate runs the shared validate -> synthesize -> record pipeline.
// It writes the error response itself and returns ok=false on failure.
func (h *SpeakHandler) generate(w http.ResponseWriter, r *http.Request, text, voice string) (*tts.SynthesisResult, bool) {
	key := auth.KeyFromContext(r.Context())

	if text == "" {
		errorJSON(w, r, http.StatusBadRequest, "No text provided")
		return nil, false
	}

	limit := h.limits.MaxTextChars
	if key == nil {
		limit = h.limits.DemoMaxTextChars
	}
	if utf8.RuneCountInString(text) > limit {
		errorJSON(w, r, http.StatusBadRequest, fmt.Sprintf("Text too long (max %d chars)", limit))
		return nil, false
	}

	start := time.Now()
	result, err := h.synth.Synthesize(r.Context(), tts.SynthesisRequest{Text: text, Voice: voice})
	latency := time.Since(start)

	if err != nil {
		h.recordUsage(key, r, text, voice, nil, latency)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":         "TTS generation failed - check /diagnose for details",
			"request_id":    chimiddleware.GetReqID(r.Context()),
			"diagnosis_url": "/diagnose",
		})
		return nil, false
	}

	h.recordUsage(key, r, text, voice, result, latency)
	return result, true
}

// recordUsage is fire-and-forget: a full queue or missing redis never
// blocks or fails the response.
func (h *SpeakHandler) recordUsage(key *models.APIKey, r *http.Request, text, voice string, result *tts.SynthesisResult, latency time.Duration) {
	if h.usageQ == nil {
		return
	}

	payload := queue.UsageRecordPayload{
		RequestID:  chimiddleware.GetReqID(r.Context()),
		Voice:      voice,
		Provider:   "cascade",
		Characters: utf8.RuneCountInString(text),
		LatencyMs:  int(latency.Milliseconds()),
		Status:     models.UsageStatusFailed,
	}
	if key != nil && key.ID != uuid.Nil {
		payload.KeyID = key.ID.String()
	}
	if result != nil {
		payload.AudioBytes = len(result.Audio)
		payload.Status = models.UsageStatusOK
	}

	if err := h.usageQ.EnqueueUsageRecord(payload); err != nil {
		slog.Warn("usage record dropped", "error", err, "request_id", payload.RequestID)
	}
}

func errorJSON(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": chimiddleware.GetReqID(r.Context()),
	})
}
