package lead

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/webhook"
)

func TestService_Submit(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(webhook.NewClient(time.Second), server.URL, zap.NewNop())
	service.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }

	err := service.Submit(context.Background(), Lead{Name: " Ana ", Phone: "+34 600 000 000", Country: "ES"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"name":    "Ana",
		"phone":   "+34 600 000 000",
		"country": "ES",
		"date":    "2025-06-01T10:00:00Z",
	}, received)
}

func TestService_SubmitMissingFields(t *testing.T) {
	service := NewService(nil, "http://127.0.0.1:1", zap.NewNop())

	tests := []Lead{
		{Phone: "1", Country: "ES"},
		{Name: "Ana", Country: "ES"},
		{Name: "Ana", Phone: "1", Country: "  "},
	}
	for _, lead := range tests {
		assert.ErrorIs(t, service.Submit(context.Background(), lead), ErrMissingFields)
	}
}

func TestService_SubmitNotConfigured(t *testing.T) {
	service := NewService(nil, "", zap.NewNop())
	err := service.Submit(context.Background(), Lead{Name: "Ana", Phone: "1", Country: "ES"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_SubmitWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sheet locked", http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewService(webhook.NewClient(time.Second), server.URL, zap.NewNop())
	err := service.Submit(context.Background(), Lead{Name: "Ana", Phone: "1", Country: "ES"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, webhook.ErrUnexpectedStatus)
}
