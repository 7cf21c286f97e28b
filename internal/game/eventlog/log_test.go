package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRequiresRunning(t *testing.T) {
	l := New()
	assert.False(t, l.Emit(NewEvent(TypeDamage, 1, 0, "p1", nil)))
}

func TestWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	require.NoError(t, l.StartWriter(&buf))

	require.True(t, l.Emit(NewEvent(TypeDamage, 3, time.Second, "p1", DamagePayload{TargetID: "e1", Damage: 240})))
	require.True(t, l.Emit(NewEvent(TypeKill, 3, time.Second, "p1", KillPayload{TargetID: "e1"})))
	l.Stop()

	var events []Event
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 2)
	assert.Equal(t, TypeDamage, events[0].Type)
	assert.Equal(t, uint64(1), events[0].Sequence)
	assert.Equal(t, TypeKill, events[1].Type)

	var dmg DamagePayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &dmg))
	assert.Equal(t, 240, dmg.Damage)

	assert.Contains(t, buf.String(), `"type":"damage"`)
}

func TestPerSourceRateLimit(t *testing.T) {
	l := New()
	require.NoError(t, l.StartWriter(nil))
	defer l.Stop()

	accepted := 0
	for i := 0; i < MaxEventsPerSource; i++ {
		if l.Emit(NewEvent(TypeAbility, 0, 0, "spammer", nil)) {
			accepted++
		}
	}
	assert.GreaterOrEqual(t, accepted, MaxEventsPerSource/10, "burst allowance")
	assert.Less(t, accepted, MaxEventsPerSource)
	assert.True(t, l.Emit(NewEvent(TypeAbility, 0, 0, "someone-else", nil)))
	assert.Greater(t, l.Stats().Dropped, uint64(0))
}

func TestRecentKeepsTail(t *testing.T) {
	l := New()
	batch := make([]Event, 0, RecentSize+10)
	for i := 0; i < RecentSize+10; i++ {
		batch = append(batch, Event{Sequence: uint64(i + 1)})
	}
	l.remember(batch)

	got := l.Recent(3)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(RecentSize+8), got[0].Sequence)
	assert.Equal(t, uint64(RecentSize+10), got[2].Sequence)
	assert.Len(t, l.Recent(0), RecentSize)
}

func TestStartFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combat.jsonl")
	l := New()
	require.NoError(t, l.Start(path))
	l.Emit(NewEvent(TypeReset, 0, 0, "", nil))
	l.Stop()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"reset"`)

	assert.Error(t, New().Start(filepath.Join(t.TempDir(), "missing", "x.jsonl")))
}

func TestRestartAfterStop(t *testing.T) {
	var first, second bytes.Buffer
	l := New()
	require.NoError(t, l.StartWriter(&first))
	require.True(t, l.Emit(NewEvent(TypeReset, 0, 0, "", nil)))
	l.Stop()
	l.Stop()
	assert.False(t, l.Running())
	assert.False(t, l.Emit(NewEvent(TypeReset, 0, 0, "", nil)))

	require.NoError(t, l.StartWriter(&second))
	assert.True(t, l.Running())
	require.True(t, l.Emit(NewEvent(TypeKill, 1, 0, "p1", KillPayload{TargetID: "e1"})))
	l.Stop()

	assert.Contains(t, first.String(), `"type":"reset"`)
	assert.NotContains(t, first.String(), `"type":"kill"`)
	assert.Contains(t, second.String(), `"type":"kill"`)
}
