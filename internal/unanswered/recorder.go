// Package unanswered records questions the assistant could not answer confidently.
//
// Delivery is fire-and-forget: the webhook request is built synchronously, sent on a
// detached goroutine under its own timeout, and failures only produce a warning.
package unanswered

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/webhook"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Status is the acknowledgement reported for a dispatch
type Status string

const (
	// StatusReceived means delivery was handed off
	StatusReceived Status = "log_received"
	// StatusURLMissing means no logging webhook is configured; nothing was sent
	StatusURLMissing Status = "logging_url_missing"
)

// Entry is the payload posted to the logging webhook
type Entry struct {
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

// Recorder posts unanswered questions to a webhook
type Recorder struct {
	client  *webhook.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	wg sync.WaitGroup
}

// NewRecorder creates a recorder. An empty url disables delivery.
func NewRecorder(client *webhook.Client, url string, timeout time.Duration, logger *zap.Logger) *Recorder {
	if client == nil {
		client = webhook.NewClient(timeout)
	}
	if timeout <= 0 {
		timeout = webhook.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		client:  client,
		url:     strings.TrimSpace(url),
		timeout: timeout,
		logger:  logger.Named("unanswered"),
		now:     time.Now,
	}
}

// Enabled reports whether a logging webhook is configured
func (r *Recorder) Enabled() bool {
	return r != nil && r.url != ""
}

// Record hands the question off for delivery and returns immediately.
// It never fails; problems are logged locally.
func (r *Recorder) Record(question string) {
	if r == nil {
		return
	}
	status, err := r.Dispatch(question)
	if err != nil {
		r.logger.Warn("unanswered question not logged", zap.Error(err))
		return
	}
	if status == StatusURLMissing {
		r.logger.Warn("unanswered question not logged: logging webhook URL is not configured")
	}
}

// Dispatch is Record for callers that need the acknowledgement.
// Only synchronous problems are returned; delivery failures are logged.
func (r *Recorder) Dispatch(question string) (Status, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if r.url == "" {
		return StatusURLMissing, nil
	}

	entry := Entry{
		Question:  question,
		Timestamp: r.now().UTC().Format(time.RFC3339),
	}

	// Detached from the caller so delivery survives the end of the request.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	req, err := webhook.NewRequest(ctx, r.url, entry)
	if err != nil {
		cancel()
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("panic while logging unanswered question", zap.Any("panic", p))
			}
		}()

		start := time.Now()
		if err := r.client.Do(req); err != nil {
			r.logger.Warn("failed to log unanswered question",
				zap.Error(err),
				zap.Duration("elapsed", time.Since(start)),
			)
			return
		}
		r.logger.Debug("unanswered question logged", zap.Duration("elapsed", time.Since(start)))
	}()

	return StatusReceived, nil
}

// Wait blocks until every dispatched delivery has finished
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
