package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// EdgeTTSConfig holds configuration for the edge-tts CLI backend.
type EdgeTTSConfig struct {
	BinPath string        // default: "edge-tts"
	Timeout time.Duration // per-attempt process timeout, default: 60s
}

// EdgeTTS synthesizes speech by shelling out to the edge-tts command line
// tool, which writes MP3 to a file. Each call uses a uniquely named temp
// file that is removed on every exit path, including timeouts.
type EdgeTTS struct {
	cfg EdgeTTSConfig
}

// NewEdgeTTS creates an EdgeTTS with defaults applied.
func NewEdgeTTS(cfg EdgeTTSConfig) *EdgeTTS {
	if cfg.BinPath == "" {
		cfg.BinPath = "edge-tts"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &EdgeTTS{cfg: cfg}
}

func (e *EdgeTTS) Name() string { return "edge-tts" }

// Synthesize runs edge-tts with the resolved voice and reads the produced
// MP3 back into memory.
func (e *EdgeTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	tmp, err := os.CreateTemp("", "tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.BinPath,
		"--text", req.Text,
		"--voice", ResolveVoice(req.Voice),
		"--write-media", tmpPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("edge-tts timed out after %s", e.cfg.Timeout)
		}
		return nil, fmt.Errorf("edge-tts failed: %w (stderr: %s)", err, stderr.String())
	}

	audio, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edge-tts output: %w", err)
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
	}, nil
}

// Check verifies the edge-tts binary is installed and runnable.
func (e *EdgeTTS) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, e.cfg.BinPath, "--version").Run(); err != nil {
		return fmt.Errorf("edge-tts not available: %w", err)
	}
	return nil
}
