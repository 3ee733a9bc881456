package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/odiadev/tts-gateway/internal/cache"
	"github.com/odiadev/tts-gateway/internal/tts"
)

const (
	diagnoseCacheKey = "diagnose:report"
	diagnoseCacheTTL = 60 * time.Second
)

// DiagnoseHandler runs a live self-test: per-provider availability checks
// plus one real synthesis through the cascade. Reports are cached briefly
// because the synthesis test is expensive.
type DiagnoseHandler struct {
	synth     Synthesizer
	providers []tts.Provider
	cache     *cache.Cache // nil when redis is unavailable
}

func NewDiagnoseHandler(synth Synthesizer, providers []tts.Provider, c *cache.Cache) *DiagnoseHandler {
	return &DiagnoseHandler{
		synth:     synth,
		providers: providers,
		cache:     c,
	}
}

type diagnosisReport struct {
	Timestamp       string                 `json:"timestamp"`
	Service         string                 `json:"service"`
	Status          string                 `json:"status"`
	Checks          map[string]string      `json:"checks"`
	Recommendations []string               `json:"recommendations"`
	TestResults     map[string]interface{} `json:"test_results"`
}

func (h *DiagnoseHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached diagnosisReport
		if err := h.cache.Get(r.Context(), diagnoseCacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	report := h.run(r)

	if h.cache != nil {
		// Best-effort: a cache write failure never fails the diagnosis.
		_ = h.cache.Set(r.Context(), diagnoseCacheKey, report, diagnoseCacheTTL)
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *DiagnoseHandler) run(r *http.Request) diagnosisReport {
	report := diagnosisReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Service:     serviceName,
		Checks:      map[string]string{},
		TestResults: map[string]interface{}{},
	}

	failures := 0
	for _, p := range h.providers {
		name := "provider:" + p.Name()
		hc, ok := p.(tts.HealthChecker)
		if !ok {
			report.Checks[name] = "ok (no availability probe)"
			continue
		}
		if err := hc.Check(r.Context()); err != nil {
			report.Checks[name] = "failed: " + err.Error()
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("provider %s is unavailable", p.Name()))
			failures++
		} else {
			report.Checks[name] = "ok"
		}
	}

	start := time.Now()
	result, err := h.synth.Synthesize(r.Context(), tts.SynthesisRequest{
		Text:  "Test diagnosis audio",
		Voice: tts.DefaultVoice,
	})
	if err != nil {
		report.Checks["tts_generation"] = "failed: " + err.Error()
		report.Recommendations = append(report.Recommendations,
			"synthesis self-test failed; inspect provider logs")
		failures++
	} else {
		report.Checks["tts_generation"] = "ok"
		report.TestResults["audio_size"] = len(result.Audio)
		report.TestResults["audio_format"] = result.ContentType
		report.TestResults["duration_ms"] = time.Since(start).Milliseconds()
	}

	if failures == 0 {
		report.Status = "operational"
	} else {
		report.Status = fmt.Sprintf("degraded: %d check(s) failing", failures)
	}
	return report
}
