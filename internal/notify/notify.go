// Package notify posts the outcome of a finished run to a configured
// webhook so unattended runs can alert on completion or failures.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdfspool/pdfspool/internal/core"
)

const EventRunCompleted = "run_completed"

type Config struct {
	URL        string
	Secret     string
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
}

type Payload struct {
	Event     string     `json:"event"`
	Timestamp time.Time  `json:"timestamp"`
	Run       RunData    `json:"run"`
	Failures  []JobError `json:"failures,omitempty"`
}

type RunData struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	DryRun     bool      `json:"dry_run"`
	Discovered int       `json:"discovered"`
	Submitted  int       `json:"submitted"`
	Failed     int       `json:"failed"`
	Batches    int       `json:"batches"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type JobError struct {
	Path  string `json:"path"`
	Batch int    `json:"batch"`
	Error string `json:"error"`
}

type Sender struct {
	cfg    Config
	client *http.Client
}

func NewSender(cfg Config) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Sender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendRunCompleted posts the run summary, retrying transient failures with
// exponential backoff. Client errors (4xx) are not retried.
func (s *Sender) SendRunCompleted(ctx context.Context, result *core.RunResult) error {
	payload := &Payload{
		Event:     EventRunCompleted,
		Timestamp: time.Now(),
		Run: RunData{
			RunID:      result.RunID,
			Root:       result.Root,
			DryRun:     result.DryRun,
			Discovered: result.Discovered,
			Submitted:  result.Submitted,
			Failed:     result.Failed,
			Batches:    result.Batches,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
		},
	}
	for _, f := range result.Failures {
		payload.Failures = append(payload.Failures, JobError{
			Path:  f.Path,
			Batch: f.Batch,
			Error: f.Err.Error(),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryCount; attempt++ {
		err := s.send(ctx, payload.Event, body)
		if err == nil {
			return nil
		}
		lastErr = err

		if isClientError(err) {
			return err
		}

		if attempt < s.cfg.RetryCount {
			backoff := s.cfg.RetryDelay * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) send(ctx context.Context, event string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event)
	if s.cfg.Secret != "" {
		req.Header.Set("X-Webhook-Signature", sign(body, s.cfg.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}
	return nil
}

func sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
