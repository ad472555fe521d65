package indi

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNotificationLog_UIDOrdering(t *testing.T) {
	now := time.Date(2026, 8, 27, 21, 0, 0, 0, time.UTC)
	l := newNotificationLog(func() time.Time { return now })

	a := l.add(BroadcastMessage{Message: "one"})
	if !strings.HasSuffix(a.UID, ":00000000") {
		t.Errorf("first uid should start the sequence at zero: %q", a.UID)
	}

	// Same instant: the sequence counter disambiguates.
	b := l.add(BroadcastMessage{Message: "two"})
	if !(a.UID < b.UID) {
		t.Errorf("uid order broken for identical timestamps: %q !< %q", a.UID, b.UID)
	}

	// Clock steps backward: the previous stamp is reused so uids never
	// decrease.
	now = now.Add(-time.Second)
	c := l.add(BroadcastMessage{Message: "three"})
	if !(b.UID < c.UID) {
		t.Errorf("uid order broken across backward clock step: %q !< %q", b.UID, c.UID)
	}
	if c.UID[:len(uidTimeFormat)] != b.UID[:len(uidTimeFormat)] {
		t.Errorf("backward step should reuse the previous stamp: %q after %q", c.UID, b.UID)
	}

	// Clock advances: new stamp, sequence resets.
	now = now.Add(2 * time.Second)
	d := l.add(BroadcastMessage{Message: "four"})
	if !(c.UID < d.UID) {
		t.Errorf("uid order broken after clock advance: %q !< %q", c.UID, d.UID)
	}
	if !strings.HasSuffix(d.UID, ":00000000") {
		t.Errorf("sequence should reset when the stamp advances: %q", d.UID)
	}
}

func TestNotificationLog_CarriesMessageFields(t *testing.T) {
	l := newNotificationLog(nil)
	n := l.add(BroadcastMessage{
		Device:    "Telescope",
		Timestamp: "2026-08-27T21:00:00",
		Message:   "Slew complete",
	})
	if n.Device != "Telescope" || n.Timestamp != "2026-08-27T21:00:00" || n.Message != "Slew complete" {
		t.Errorf("note fields not carried: %+v", n)
	}
	if n.UID == "" {
		t.Error("note missing uid")
	}
}

func TestNotificationLog_CapEvictsOldest(t *testing.T) {
	now := time.Date(2026, 8, 27, 21, 0, 0, 0, time.UTC)
	l := newNotificationLog(func() time.Time { return now })

	for i := 0; i < notificationCap+50; i++ {
		l.add(BroadcastMessage{Message: fmt.Sprintf("note-%d", i)})
		now = now.Add(time.Millisecond)
	}

	got := l.all()
	if len(got) != notificationCap {
		t.Fatalf("expected %d retained notes, got %d", notificationCap, len(got))
	}
	if got[0].Message != "note-50" {
		t.Errorf("oldest entries should be evicted first, front is %q", got[0].Message)
	}
	if got[len(got)-1].Message != fmt.Sprintf("note-%d", notificationCap+49) {
		t.Errorf("newest note missing, back is %q", got[len(got)-1].Message)
	}
	for i := 1; i < len(got); i++ {
		if !(got[i-1].UID < got[i].UID) {
			t.Fatalf("retained notes out of uid order at %d: %q !< %q", i, got[i-1].UID, got[i].UID)
		}
	}
}

func TestNotificationLog_AllReturnsCopy(t *testing.T) {
	l := newNotificationLog(nil)
	l.add(BroadcastMessage{Message: "original"})

	got := l.all()
	got[0].Message = "mutated"
	if l.all()[0].Message != "original" {
		t.Error("all() must return a copy")
	}
}
