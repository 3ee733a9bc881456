package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteTTSConfig holds configuration for a remote HTTP speech endpoint.
type RemoteTTSConfig struct {
	URL     string
	Method  string        // "GET" (query params) or "POST" (JSON body), default GET
	Timeout time.Duration // default: 30s
}

// RemoteTTS synthesizes speech by calling an external HTTP endpoint that
// returns raw audio. A non-2xx status is a failure; the response
// Content-Type is passed through unchanged so heterogeneous providers can
// coexist in the same cascade.
type RemoteTTS struct {
	cfg        RemoteTTSConfig
	httpClient *http.Client
}

// NewRemoteTTS creates a RemoteTTS with defaults applied.
func NewRemoteTTS(cfg RemoteTTSConfig) *RemoteTTS {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RemoteTTS{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (r *RemoteTTS) Name() string { return "remote-http" }

func (r *RemoteTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	httpReq, err := r.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote tts failed (status %d): %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote tts body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: contentType,
	}, nil
}

func (r *RemoteTTS) buildRequest(ctx context.Context, req SynthesisRequest) (*http.Request, error) {
	voiceID := ResolveVoice(req.Voice)

	if r.cfg.Method == http.MethodPost {
		payload, err := json.Marshal(map[string]string{
			"text":  req.Text,
			"voice": voiceID,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal remote tts request: %w", err)
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	}

	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse remote tts URL: %w", err)
	}
	q := u.Query()
	q.Set("text", req.Text)
	q.Set("voice", voiceID)
	u.RawQuery = q.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// Check probes the endpoint for transport-level reachability. Any HTTP
// response counts as reachable; only connection errors fail.
func (r *RemoteTTS) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, r.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("remote tts unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
