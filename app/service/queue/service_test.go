package queue

import (
	"context"
	"testing"
	"time"
	"varconf/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddAndReceive(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)

	decision := model.VariantDecision{Purpose: "CAR", Variant: "ECONOMY"}
	require.True(t, svc.Add(t.Context(), "s1", decision))

	msg := <-svc.Channel()
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, decision, msg.Decision)
}

func TestService_AddWaitsForRoom(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)

	const total = bufferSize * 4

	received := make(chan []string, 1)
	go func() {
		var ids []string
		for msg := range svc.Channel() {
			ids = append(ids, msg.SessionID)
			time.Sleep(time.Microsecond)
		}
		received <- ids
	}()

	want := make([]string, 0, total)
	for i := range total {
		id := string(rune('a' + i%26))
		want = append(want, id)
		require.True(t, svc.Add(t.Context(), id, nil))
	}
	svc.Close()

	assert.Equal(t, want, <-received)
}

func TestService_AddGivesUpOnCancel(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)

	for range bufferSize {
		require.True(t, svc.Add(t.Context(), "s1", nil))
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	assert.False(t, svc.Add(ctx, "s1", nil))
	assert.Len(t, svc.Channel(), bufferSize)
}

func TestService_Close(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)

	require.True(t, svc.Add(t.Context(), "s1", nil))
	svc.Close()
	require.NoError(t, svc.Shutdown())

	assert.False(t, svc.Add(t.Context(), "s1", nil))

	_, ok := <-svc.Channel()
	assert.True(t, ok)
	_, ok = <-svc.Channel()
	assert.False(t, ok)
}
