package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/checkwatch/internal/domain"
)

func TestMessage_ContainsCheckDetails(t *testing.T) {
	rec := withState(healthCheck(), domain.StateUp, t1)
	rec.Method = domain.MethodPost

	msg := Message(rec)

	assert.Contains(t, msg, "POST")
	assert.Contains(t, msg, "http://example.com/health")
	assert.Contains(t, msg, "up")
	assert.Contains(t, msg, "2024-05-01T12:01:00Z")
}

func TestAlerter_DeliversToOwner(t *testing.T) {
	n := &recordingNotifier{}
	events := &recordedEvents{}
	rec := withState(healthCheck(), domain.StateDown, t1)

	require.NoError(t, NewAlerter(n, events).Dispatch(context.Background(), rec))

	sent := n.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, "+15555550123", sent[0].destination)
	assert.Equal(t, Message(rec), sent[0].message)
	assert.True(t, events.has("CHCK", "c1", "alert_sent"))
}

func TestAlerter_DeliveryFailureIsReported(t *testing.T) {
	n := &recordingNotifier{err: errors.New("gateway down")}
	events := &recordedEvents{}

	err := NewAlerter(n, events).Dispatch(context.Background(), withState(healthCheck(), domain.StateDown, t1))

	assert.Error(t, err)
	assert.True(t, events.has("ERR", "c1", "alert_failed"))
	assert.Len(t, n.deliveries(), 1, "no retry")
}

func TestAlerter_NoNotifier(t *testing.T) {
	events := &recordedEvents{}
	err := NewAlerter(nil, events).Dispatch(context.Background(), withState(healthCheck(), domain.StateDown, t1))
	assert.Error(t, err)
	assert.True(t, events.has("ERR", "c1", "alert_failed"))
}
