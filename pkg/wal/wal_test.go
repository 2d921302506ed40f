package wal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvent struct {
	ID string `json:"id"`
}

func TestAppendAndReplay_AllSucceed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append("record_event", fakeEvent{ID: "a"}))
	require.NoError(t, w.Append("record_event", fakeEvent{ID: "b"}))
	require.NoError(t, w.Close())

	var seen []string
	replayed, remaining, err := Replay(path, func(e Entry) error {
		var ev fakeEvent
		require.NoError(t, json.Unmarshal(e.Payload, &ev))
		seen = append(seen, ev.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, replayed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, []string{"a", "b"}, seen)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "fully replayed wal should be truncated")
}

func TestReplay_StopsAtFirstBadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append("record_event", fakeEvent{ID: "a"}))
	require.NoError(t, w.Append("record_event", fakeEvent{ID: "bad"}))
	require.NoError(t, w.Append("record_event", fakeEvent{ID: "c"}))
	require.NoError(t, w.Close())

	var seen []string
	replayed, remaining, err := Replay(path, func(e Entry) error {
		var ev fakeEvent
		require.NoError(t, json.Unmarshal(e.Payload, &ev))
		if ev.ID == "bad" {
			return errors.New("store rejected entry")
		}
		seen = append(seen, ev.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 2, remaining, "the bad entry and everything after it stay in the file")
	assert.Equal(t, []string{"a"}, seen)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bad"`)
	assert.Contains(t, string(data), `"c"`)
	assert.NotContains(t, string(data), `"id":"a"`)
}

func TestReplay_MissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.wal")

	replayed, remaining, err := Replay(path, func(Entry) error {
		t.Fatal("apply should not be called for a missing file")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
	assert.Equal(t, 0, remaining)
}

func TestAppend_AfterCloseReturnsErrClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Append("record_event", fakeEvent{ID: "a"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReplay_SecondReplayOfEmptyFileIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append("record_event", fakeEvent{ID: "a"}))
	require.NoError(t, w.Close())

	_, _, err = Replay(path, func(Entry) error { return nil })
	require.NoError(t, err)

	replayed, remaining, err := Replay(path, func(Entry) error {
		t.Fatal("no entries should remain to replay")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
	assert.Equal(t, 0, remaining)
}
