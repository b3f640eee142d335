package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	created := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)
	o := domain.Outage{
		ID:          7,
		District:    "Central District",
		Resource:    "Electricity",
		Addresses:   []domain.AddressBlock{{Street: "Lenina", Houses: []string{"10"}}},
		StartTime:   "09:00",
		EndTime:     "13:00",
		ContentHash: "abc123",
		CreatedAt:   created,
	}

	msg, err := serializeToMessage(o)
	require.NoError(t, err)

	assert.Equal(t, []byte("abc123"), msg.Key)
	assert.Contains(t, string(msg.Value), `"district":"Central District"`)
	assert.Contains(t, string(msg.Value), `"content_hash":"abc123"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("outage"), msg.Headers[0].Value)
	assert.Equal(t, []byte("Electricity"), msg.Headers[1].Value)
	assert.Equal(t, "detected_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(created.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublishOutages_EmptyBatchIsNoop(t *testing.T) {
	p := NewPublisher([]string{"localhost:1"}, "outages", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	require.NoError(t, p.PublishOutages(context.Background(), nil))
}
