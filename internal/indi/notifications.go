package indi

import (
	"fmt"
	"time"
)

// notificationCap is the maximum number of broadcast notes retained.
// Oldest entries (by uid ordering) are evicted first.
const notificationCap = 100

// uidTimeFormat is fixed-width so that lexicographic ordering of uids
// matches chronological ordering.
const uidTimeFormat = "2006-01-02T15:04:05.000000000Z"

// Notification is a retained broadcast note. UID ordering matches arrival
// order, even across identical timestamps and backwards clock steps.
type Notification struct {
	UID       string `json:"uid"`
	Device    string `json:"device,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message"`
}

// notificationLog is the capped, uid-ordered broadcast-note store. It is
// not safe for concurrent use; the Client serialises access under its
// mutex.
type notificationLog struct {
	now       func() time.Time
	lastStamp string
	seq       uint64
	entries   []Notification
}

func newNotificationLog(now func() time.Time) *notificationLog {
	if now == nil {
		now = time.Now
	}
	return &notificationLog{now: now}
}

// add records a broadcast note and returns the stored entry.
//
// The uid is the wall-clock timestamp plus a zero-padded hex sequence
// counter. The counter resets when the timestamp advances; when the clock
// appears to go backward the previous timestamp is reused so uids never
// decrease.
func (l *notificationLog) add(m BroadcastMessage) Notification {
	stamp := l.now().UTC().Format(uidTimeFormat)
	if stamp <= l.lastStamp {
		stamp = l.lastStamp
		l.seq++
	} else {
		l.lastStamp = stamp
		l.seq = 0
	}

	n := Notification{
		UID:       fmt.Sprintf("%s:%08x", stamp, l.seq),
		Device:    m.Device,
		Timestamp: m.Timestamp,
		Message:   m.Message,
	}

	// Appends are already uid-ordered, so eviction is a front trim.
	l.entries = append(l.entries, n)
	if len(l.entries) > notificationCap {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-notificationCap:]...)
	}
	return n
}

// all returns a copy of the retained notifications, oldest first.
func (l *notificationLog) all() []Notification {
	out := make([]Notification, len(l.entries))
	copy(out, l.entries)
	return out
}
