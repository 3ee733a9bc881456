package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/odiadev/tts-gateway/internal/api/handlers"
	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/config"
	"github.com/odiadev/tts-gateway/internal/models"
	"github.com/odiadev/tts-gateway/internal/queue"
	"github.com/odiadev/tts-gateway/internal/tts"
)

type stubSynth struct {
	calls atomic.Int32
	fail  bool
	audio []byte
}

func (s *stubSynth) Synthesize(_ context.Context, _ tts.SynthesisRequest) (*tts.SynthesisResult, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, tts.ErrAllProvidersFailed
	}
	return &tts.SynthesisResult{Audio: s.audio, ContentType: "audio/mpeg"}, nil
}

type captureQueue struct {
	payloads []queue.UsageRecordPayload
}

func (c *captureQueue) EnqueueUsageRecord(p queue.UsageRecordPayload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

func mp3Bytes(size int) []byte {
	b := make([]byte, size)
	copy(b, "ID3")
	return b
}

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{MaxTextChars: 1000, DemoMaxTextChars: 100}
}

// newTestRouter wires the speak handler behind RequestID and auth
// middleware the same way the production router does.
func newTestRouter(synth handlers.Synthesizer, usageQ handlers.UsageEnqueuer, demoMode bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)

	var mw *auth.Middleware
	if demoMode {
		mw = auth.NewMiddleware(nil, "x-api-key", true)
	} else {
		mw = auth.NewMiddleware(auth.NewStaticValidator([]string{"test_key"}), "x-api-key", false)
	}

	h := handlers.NewSpeakHandler(synth, testLimits(), usageQ)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Get("/speak", h.Speak)
		r.Post("/api/speak", h.APISpeak)
	})
	return r
}

func TestSpeakSuccess(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	usageQ := &captureQueue{}
	router := newTestRouter(synth, usageQ, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=Hello+Nigeria!&voice=female", nil)
	req.Header.Set("x-api-key", "test_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, "2048", rec.Header().Get("X-Audio-Size"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Greater(t, rec.Body.Len(), 1000)

	require.Len(t, usageQ.payloads, 1)
	require.Equal(t, "ok", usageQ.payloads[0].Status)
	require.Equal(t, 14, usageQ.payloads[0].Characters)
}

func TestSpeakEmptyText(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=", nil)
	req.Header.Set("x-api-key", "test_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "No text provided", body["error"])
	require.NotEmpty(t, body["request_id"])
	require.EqualValues(t, 0, synth.calls.Load(), "no provider should run for invalid requests")
}

func TestSpeakTextTooLong(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	long := strings.Repeat("a", 1001)
	req := httptest.NewRequest(http.MethodGet, "/speak?text="+long, nil)
	req.Header.Set("x-api-key", "test_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Text too long (max 1000 chars)")
	require.EqualValues(t, 0, synth.calls.Load())
}

func TestSpeakMissingKey(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Missing x-api-key header")
	require.EqualValues(t, 0, synth.calls.Load(), "no provider should run without a valid key")
}

// exhaustedValidator rejects every key as over quota.
type exhaustedValidator struct{}

func (exhaustedValidator) Validate(_ context.Context, _ string) (*models.APIKey, error) {
	return nil, auth.ErrQuotaExceeded
}

func TestSpeakQuotaExceeded(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	mw := auth.NewMiddleware(exhaustedValidator{}, "x-api-key", false)
	h := handlers.NewSpeakHandler(synth, testLimits(), nil)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Get("/speak", h.Speak)
	})

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	req.Header.Set("x-api-key", "odia_exhausted_key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "API key quota exceeded", body["error"])
	require.NotEmpty(t, body["request_id"])
	require.EqualValues(t, 0, synth.calls.Load(), "no provider should run for an exhausted key")
}

func TestSpeakInvalidKey(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	req.Header.Set("x-api-key", "wrong_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.EqualValues(t, 0, synth.calls.Load())
}

func TestSpeakBearerToken(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	req.Header.Set("Authorization", "Bearer test_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSpeakAllProvidersFailed(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{fail: true}
	usageQ := &captureQueue{}
	router := newTestRouter(synth, usageQ, false)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	req.Header.Set("x-api-key", "test_key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "/diagnose", body["diagnosis_url"])
	require.NotEmpty(t, body["request_id"])

	require.Len(t, usageQ.payloads, 1)
	require.Equal(t, "failed", usageQ.payloads[0].Status)
}

func TestAPISpeakJSONResponse(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	payload, _ := json.Marshal(map[string]string{"text": "Hello Nigeria!", "voice": "male"})
	req := httptest.NewRequest(http.MethodPost, "/api/speak", bytes.NewReader(payload))
	req.Header.Set("x-api-key", "test_key")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success        bool   `json:"success"`
		AudioURL       string `json:"audio_url"`
		CharacterCount int    `json:"character_count"`
		Voice          string `json:"voice"`
		AudioSize      int    `json:"audio_size"`
		RequestID      string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.True(t, strings.HasPrefix(body.AudioURL, "data:audio/mpeg;base64,"))
	require.Equal(t, 14, body.CharacterCount)
	require.Equal(t, "male", body.Voice)
	require.Equal(t, 2048, body.AudioSize)
	require.NotEmpty(t, body.RequestID)
}

func TestDemoModeSkipsAuth(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDemoModeTextLimit(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, true)

	long := strings.Repeat("a", 101)
	req := httptest.NewRequest(http.MethodGet, "/speak?text="+long, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Text too long (max 100 chars)")
	require.EqualValues(t, 0, synth.calls.Load())
}

func TestRepeatedRequestsAreIndependent(t *testing.T) {
	t.Parallel()

	synth := &stubSynth{audio: mp3Bytes(2048)}
	router := newTestRouter(synth, nil, false)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/speak?text=hello", nil)
		req.Header.Set("x-api-key", "test_key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// No caching: every call re-invokes the provider chain.
	require.EqualValues(t, 3, synth.calls.Load())
}
