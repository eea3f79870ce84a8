package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/model"
)

func TestInMemoryStore_SetGetDelete(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	agent := model.NewAgentID()

	_, ok, err := s.Get(profile, agent)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(profile, agent, json.RawMessage(`{"k":1}`)))

	v, ok, err := s.Get(profile, agent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"k":1}`, string(v))

	deleted, err := s.Delete(profile, agent)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err = s.Get(profile, agent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryStore_SetPreservesCreatedAt(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	agent := model.NewAgentID()

	require.NoError(t, s.Set(profile, agent, json.RawMessage(`{"a":1}`)))
	first, ok, err := s.GetStored(profile, agent)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(time.Millisecond)
	require.NoError(t, s.Set(profile, agent, json.RawMessage(`{"a":2}`)))
	second, ok, err := s.GetStored(profile, agent)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt) || second.UpdatedAt.Equal(first.UpdatedAt))
}

func TestInMemoryStore_MergeIsRightBiased(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	agent := model.NewAgentID()

	require.NoError(t, s.Set(profile, agent, json.RawMessage(`{"a":2,"b":3}`)))
	before, _, err := s.GetStored(profile, agent)
	require.NoError(t, err)

	require.NoError(t, s.Merge(profile, agent, json.RawMessage(`{"a":1}`)))

	v, ok, err := s.Get(profile, agent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1,"b":3}`, string(v))

	after, _, err := s.GetStored(profile, agent)
	require.NoError(t, err)
	assert.True(t, !after.UpdatedAt.Before(before.UpdatedAt))
}

func TestInMemoryStore_MergeWithoutExistingBehavesAsSet(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	agent := model.NewAgentID()

	require.NoError(t, s.Merge(profile, agent, json.RawMessage(`{"fresh":true}`)))
	v, ok, err := s.Get(profile, agent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"fresh":true}`, string(v))
}

func TestInMemoryStore_MergeRejectsNonObjectExisting(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	agent := model.NewAgentID()

	require.NoError(t, s.Set(profile, agent, json.RawMessage(`[1,2,3]`)))
	err := s.Merge(profile, agent, json.RawMessage(`{"a":1}`))
	require.Error(t, err)
}

func TestInMemoryStore_ClearProfileIsolatesOtherProfiles(t *testing.T) {
	s := NewInMemoryStore()
	p1 := model.NewProfileID()
	p2 := model.NewProfileID()
	a1 := model.NewAgentID()
	a2 := model.NewAgentID()

	require.NoError(t, s.Set(p1, a1, json.RawMessage(`{}`)))
	require.NoError(t, s.Set(p2, a2, json.RawMessage(`{}`)))

	n, err := s.ClearProfile(p1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := s.Get(p1, a1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(p2, a2)
	require.NoError(t, err)
	assert.True(t, ok, "a value written under one composite key must never be visible, or removed, under another")
}

func TestInMemoryStore_ListAgents(t *testing.T) {
	s := NewInMemoryStore()
	profile := model.NewProfileID()
	a1 := model.NewAgentID()
	a2 := model.NewAgentID()

	require.NoError(t, s.Set(profile, a1, json.RawMessage(`{}`)))
	require.NoError(t, s.Set(profile, a2, json.RawMessage(`{}`)))

	ids, err := s.ListAgents(profile)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
