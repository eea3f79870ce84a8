package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/model"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestStreamPublisher_PublishThenFetch(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	pub := NewStreamPublisher(client, DefaultStreamConfig(), nil)
	ctx := context.Background()
	agent := model.NewAgentID()

	require.NoError(t, pub.PublishEvent(ctx, agent, json.RawMessage(`{"n":1}`), "orders.created"))

	events, err := pub.Fetch(ctx, "orders.created", "consumer-1", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.JSONEq(t, `{"n":1}`, string(events[0].Data))
}

func TestStreamPublisher_EmptySubjectAndTypeIsValidationError(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	pub := NewStreamPublisher(client, DefaultStreamConfig(), nil)
	err := pub.PublishEvent(context.Background(), model.NewAgentID(), nil, "")
	require.Error(t, err)
}

func TestStreamPublisher_EnsureStreamIsIdempotent(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	pub := NewStreamPublisher(client, DefaultStreamConfig(), nil)
	ctx := context.Background()
	agent := model.NewAgentID()

	require.NoError(t, pub.PublishEvent(ctx, agent, json.RawMessage(`{}`), "a.b"))
	require.NoError(t, pub.PublishEvent(ctx, agent, json.RawMessage(`{}`), "a.b"))
}
