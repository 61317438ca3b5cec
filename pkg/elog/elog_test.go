package elog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ec.elog")
	boot := NewBootID()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 5, time.UTC)

	l, err := NewFileLog(path)
	require.NoError(t, err)
	l.Add(Event{Timestamp: ts, BootID: boot, Type: TypeECEvent, Code: 15})
	l.Add(Event{Timestamp: ts, BootID: boot, Type: TypeECUpdate, Message: "up to date"})
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	l.Add(Event{Type: TypeECReboot})

	l, err = NewFileLog(path)
	require.NoError(t, err)
	l.Add(Event{Timestamp: ts, BootID: boot, Type: TypeRecoveryMode, Code: 2})
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	events, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, TypeECEvent, events[0].Type)
	assert.Equal(t, uint32(15), events[0].Code)
	assert.True(t, ts.Equal(events[0].Timestamp))
	assert.Equal(t, "up to date", events[1].Message)
	assert.Equal(t, TypeRecoveryMode, events[2].Type)
	for _, e := range events {
		assert.Equal(t, boot, e.BootID)
	}
}

func TestEncodeUsesIntegerKeys(t *testing.T) {
	b, err := Encode(Event{Type: TypeECEvent})
	require.NoError(t, err)
	// map(3) {1: time, 2: "", 3: 1}; Code and Message are omitted.
	assert.Equal(t, byte(0xa3), b[0])
	e, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, TypeECEvent, e.Type)
}

func TestMemoryLog(t *testing.T) {
	var l MemoryLog
	l.Add(Event{Type: TypeECEvent, Code: 1})
	l.Add(Event{Type: TypeECDeviceEvent, Code: 2})
	l.Add(Event{Type: TypeECEvent, Code: 3})
	assert.Len(t, l.Events(), 3)
	got := l.OfType(TypeECEvent)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(3), got[1].Code)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "EC_UPDATE", TypeECUpdate.String())
	assert.Equal(t, "TYPE(99)", Type(99).String())
}
