// Package elog records boot-time EC events.
//
// Events are appended as CBOR records with integer keys, one record per
// event. Recording is best effort: a sink that cannot write drops the
// event and the caller carries on.
package elog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Type classifies an event.
type Type uint8

const (
	// TypeECEvent is a host event read from the EC (Code is the event number).
	TypeECEvent Type = iota + 1
	// TypeECDeviceEvent is a device event that may have woken the system.
	TypeECDeviceEvent
	// TypeRecoveryMode records that recovery was requested (Code is the reason).
	TypeRecoveryMode
	// TypeECUpdate records an EC software sync outcome.
	TypeECUpdate
	// TypeECReboot records a reboot request sent to the EC.
	TypeECReboot
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeECEvent:
		return "EC_EVENT"
	case TypeECDeviceEvent:
		return "EC_DEVICE_EVENT"
	case TypeRecoveryMode:
		return "RECOVERY_MODE"
	case TypeECUpdate:
		return "EC_UPDATE"
	case TypeECReboot:
		return "EC_REBOOT"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

// Event is one log record.
type Event struct {
	// Timestamp when the event was recorded.
	Timestamp time.Time `cbor:"1,keyasint"`

	// BootID ties together the events of one boot.
	BootID string `cbor:"2,keyasint"`

	// Type classifies the event.
	Type Type `cbor:"3,keyasint"`

	// Code is the type specific event code.
	Code uint32 `cbor:"4,keyasint,omitempty"`

	// Message is free-form detail.
	Message string `cbor:"5,keyasint,omitempty"`
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s code=%#x", e.Timestamp.Format(time.RFC3339Nano), e.Type, e.Code)
	if e.Message != "" {
		s += " " + e.Message
	}
	return s
}

// Log is a sink for events.
type Log interface {
	// Add records an event. It must not fail the caller.
	Add(e Event)
}

// NoopLog discards all events.
type NoopLog struct{}

// Add discards the event.
func (NoopLog) Add(Event) {}

// NewBootID returns a fresh identifier for the current boot.
func NewBootID() string {
	return uuid.NewString()
}

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("elog: CBOR encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("elog: CBOR decoder mode: %v", err))
	}
}

// Encode encodes one event.
func Encode(e Event) ([]byte, error) {
	return encMode.Marshal(e)
}

// Decode decodes one event.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := decMode.Unmarshal(b, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader) ([]Event, error) {
	d := decMode.NewDecoder(r)
	var events []Event
	for {
		var e Event
		err := d.Decode(&e)
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}

// FileLog appends events to a file.
type FileLog struct {
	mu     sync.Mutex
	file   *os.File
	enc    *cbor.Encoder
	closed bool
}

// NewFileLog opens path for appending, creating it if needed.
func NewFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLog{file: f, enc: encMode.NewEncoder(f)}, nil
}

// Add implements Log.
func (l *FileLog) Add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_ = l.enc.Encode(e)
}

// Close closes the file. Later Adds are dropped.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// MemoryLog keeps events in memory.
type MemoryLog struct {
	mu     sync.Mutex
	events []Event
}

// Add implements Log.
func (l *MemoryLog) Add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of the recorded events.
func (l *MemoryLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// OfType returns the recorded events of type t.
func (l *MemoryLog) OfType(t Type) []Event {
	var r []Event
	for _, e := range l.Events() {
		if e.Type == t {
			r = append(r, e)
		}
	}
	return r
}

var (
	_ Log = NoopLog{}
	_ Log = (*FileLog)(nil)
	_ Log = (*MemoryLog)(nil)
)
