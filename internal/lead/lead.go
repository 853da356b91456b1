// Package lead forwards contact requests captured by the chat widget.
package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/webhook"
)

var (
	ErrMissingFields  = errors.New("name, phone and country are required")
	ErrNotConfigured  = errors.New("lead webhook URL is not configured")
	ErrDeliveryFailed = errors.New("failed to store lead")
)

// Lead is a prospective guest's contact request
type Lead struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

// Validate trims every field and requires all of them
func (l *Lead) Validate() error {
	l.Name = strings.TrimSpace(l.Name)
	l.Phone = strings.TrimSpace(l.Phone)
	l.Country = strings.TrimSpace(l.Country)
	if l.Name == "" || l.Phone == "" || l.Country == "" {
		return ErrMissingFields
	}
	return nil
}

type payload struct {
	Lead
	Date string `json:"date"`
}

// Service submits leads to the lead webhook synchronously
type Service struct {
	client *webhook.Client
	url    string
	logger *zap.Logger
	now    func() time.Time
}

func NewService(client *webhook.Client, url string, logger *zap.Logger) *Service {
	if client == nil {
		client = webhook.NewClient(webhook.DefaultTimeout)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		url:    strings.TrimSpace(url),
		logger: logger.Named("lead"),
		now:    time.Now,
	}
}

// Submit validates the lead and posts it with the submission date.
// ErrMissingFields is a client error; anything else is a server-side failure.
func (s *Service) Submit(ctx context.Context, lead Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	if s.url == "" {
		s.logger.Error("lead webhook URL is not configured")
		return ErrNotConfigured
	}

	err := s.client.Post(ctx, s.url, payload{
		Lead: lead,
		Date: s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.Error("failed to forward lead", zap.Error(err), zap.String("country", lead.Country))
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	s.logger.Info("lead stored", zap.String("country", lead.Country))
	return nil
}
