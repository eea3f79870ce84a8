package eventbus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/model"
)

func TestInMemoryCollector_DrainReturnsInEmissionOrder(t *testing.T) {
	c := NewInMemoryCollector()
	agent := model.NewAgentID()
	ctx := context.Background()

	require.NoError(t, c.PublishEvent(ctx, agent, json.RawMessage(`{"n":1}`), "t.out"))
	require.NoError(t, c.PublishEvent(ctx, agent, json.RawMessage(`{"n":2}`), "t.out"))

	events := c.Drain()
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"n":1}`, string(events[0].Data))
	assert.JSONEq(t, `{"n":2}`, string(events[1].Data))

	assert.Empty(t, c.Drain(), "drain must clear the buffer")
}

func TestInMemoryCollector_Clear(t *testing.T) {
	c := NewInMemoryCollector()
	agent := model.NewAgentID()
	require.NoError(t, c.PublishEvent(context.Background(), agent, nil, "t"))
	c.Clear()
	assert.Empty(t, c.Drain())
}

func TestInMemoryCollector_UsesOverrideType(t *testing.T) {
	c := NewInMemoryCollector()
	agent := model.NewAgentID()
	require.NoError(t, c.PublishEvent(context.Background(), agent, nil, "custom.type"))
	events := c.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "custom.type", events[0].Type)
	assert.Equal(t, "agent:"+agent.String(), events[0].Source)
}
