package indi

import "testing"

func testDef(device, name string, kind PropertyKind, state VectorState, props ...PropertyDef) DefVector {
	return DefVector{
		Device:     device,
		Name:       name,
		Kind:       kind,
		State:      state,
		Properties: props,
	}
}

func TestTree_ApplyDef(t *testing.T) {
	tr := newTree(0)

	tr.apply(testDef("Telescope", "CONNECTION", KindSwitch, StateIdle,
		PropertyDef{Name: "CONNECT", Label: "Connect", Value: "Off"},
		PropertyDef{Name: "DISCONNECT", Value: "On"},
	), noopLogger{})

	v, ok := tr.lookup("Telescope", "CONNECTION")
	if !ok {
		t.Fatal("vector not inserted")
	}
	if v.kind != KindSwitch || v.state != StateIdle {
		t.Errorf("wrong kind/state: %v/%q", v.kind, v.state)
	}
	if len(v.order) != 2 || v.order[0] != "CONNECT" || v.order[1] != "DISCONNECT" {
		t.Errorf("definition order not kept: %v", v.order)
	}
	if v.children["CONNECT"].label != "Connect" || v.children["CONNECT"].value != "Off" {
		t.Errorf("wrong child: %+v", v.children["CONNECT"])
	}
	if v.revision != 1 || tr.revision != 1 {
		t.Errorf("revision not stamped: vector=%d tree=%d", v.revision, tr.revision)
	}
}

func TestTree_ApplyDef_DuplicateChildrenDeduped(t *testing.T) {
	tr := newTree(0)
	tr.apply(testDef("CCD", "CCD_INFO", KindText, StateOk,
		PropertyDef{Name: "MODEL", Value: "first"},
		PropertyDef{Name: "MODEL", Value: "second"},
	), noopLogger{})

	v, _ := tr.lookup("CCD", "CCD_INFO")
	if len(v.order) != 1 {
		t.Fatalf("expected deduped order, got %v", v.order)
	}
	if v.children["MODEL"].value != "first" {
		t.Errorf("first occurrence should win, got %q", v.children["MODEL"].value)
	}
}

func TestTree_ApplyDef_ReplacesWholesale(t *testing.T) {
	tr := newTree(0)
	tr.apply(testDef("Focuser", "FOCUS_SPEED", KindNumber, StateOk,
		PropertyDef{Name: "SPEED", Value: "5"},
		PropertyDef{Name: "ACCEL", Value: "1"},
	), noopLogger{})
	tr.apply(testDef("Focuser", "FOCUS_SPEED", KindNumber, StateIdle,
		PropertyDef{Name: "SPEED", Value: "9"},
	), noopLogger{})

	v, _ := tr.lookup("Focuser", "FOCUS_SPEED")
	if _, ok := v.children["ACCEL"]; ok {
		t.Error("redefinition should drop children absent from the new definition")
	}
	if v.children["SPEED"].value != "9" || v.state != StateIdle {
		t.Errorf("redefinition not applied: value=%q state=%q", v.children["SPEED"].value, v.state)
	}
	if v.revision != 2 {
		t.Errorf("expected revision 2, got %d", v.revision)
	}
}

func TestTree_ApplySet(t *testing.T) {
	tr := newTree(0)
	tr.apply(testDef("Telescope", "CONNECTION", KindSwitch, StateIdle,
		PropertyDef{Name: "CONNECT", Value: "Off"},
	), noopLogger{})

	mutated := tr.apply(SetVector{
		Device:   "Telescope",
		Name:     "CONNECTION",
		Kind:     KindSwitch,
		HasState: true,
		State:    StateBusy,
		Message:  "connecting",
		Values:   []PropertyValue{{Name: "CONNECT", Value: "On"}},
	}, noopLogger{})

	if !mutated {
		t.Fatal("update should report a mutation")
	}
	v, _ := tr.lookup("Telescope", "CONNECTION")
	if v.state != StateBusy || v.message != "connecting" {
		t.Errorf("state/message not applied: %q/%q", v.state, v.message)
	}
	if v.children["CONNECT"].value != "On" {
		t.Errorf("value not applied: %q", v.children["CONNECT"].value)
	}
	if v.revision != 2 {
		t.Errorf("expected revision 2, got %d", v.revision)
	}
}

func TestTree_ApplySet_StateAndMessageConditional(t *testing.T) {
	tr := newTree(0)
	def := testDef("Telescope", "CONNECTION", KindSwitch, StateAlert,
		PropertyDef{Name: "CONNECT", Value: "Off"})
	def.Message = "previous fault"
	def.Timeout = 30
	tr.apply(def, noopLogger{})

	// No state attribute and no message: both survive, but the timeout is
	// always overwritten.
	tr.apply(SetVector{Device: "Telescope", Name: "CONNECTION", Kind: KindSwitch}, noopLogger{})

	v, _ := tr.lookup("Telescope", "CONNECTION")
	if v.state != StateAlert {
		t.Errorf("state without HasState should be kept, got %q", v.state)
	}
	if v.message != "previous fault" {
		t.Errorf("empty message should not clear the old one, got %q", v.message)
	}
	if v.timeout != 0 {
		t.Errorf("timeout should be overwritten, got %v", v.timeout)
	}
}

func TestTree_ApplySet_UnknownTargetsAbsorbed(t *testing.T) {
	tr := newTree(0)
	tr.apply(testDef("Telescope", "CONNECTION", KindSwitch, StateIdle,
		PropertyDef{Name: "CONNECT", Value: "Off"},
	), noopLogger{})
	before := tr.revision

	if tr.apply(SetVector{Device: "Telescope", Name: "NO_SUCH_VECTOR"}, noopLogger{}) {
		t.Error("update for unknown vector should not mutate")
	}
	if tr.revision != before {
		t.Errorf("revision moved on dropped update: %d", tr.revision)
	}

	// Unknown child inside a known vector: the rest of the update applies.
	mutated := tr.apply(SetVector{
		Device: "Telescope",
		Name:   "CONNECTION",
		Values: []PropertyValue{
			{Name: "NO_SUCH_PROP", Value: "x"},
			{Name: "CONNECT", Value: "On"},
		},
	}, noopLogger{})
	if !mutated {
		t.Fatal("partial update should still mutate")
	}
	v, _ := tr.lookup("Telescope", "CONNECTION")
	if v.children["CONNECT"].value != "On" {
		t.Errorf("known child not updated: %q", v.children["CONNECT"].value)
	}
}

func TestTree_ApplyDelete(t *testing.T) {
	newPopulated := func() *tree {
		tr := newTree(0)
		tr.apply(testDef("Telescope", "CONNECTION", KindSwitch, StateIdle), noopLogger{})
		tr.apply(testDef("Telescope", "EQUATORIAL_EOD_COORD", KindNumber, StateIdle), noopLogger{})
		return tr
	}

	t.Run("single vector", func(t *testing.T) {
		tr := newPopulated()
		if !tr.apply(DelProperty{Device: "Telescope", Name: "CONNECTION"}, noopLogger{}) {
			t.Fatal("delete should mutate")
		}
		if _, ok := tr.lookup("Telescope", "CONNECTION"); ok {
			t.Error("vector still present after delete")
		}
		if _, ok := tr.lookup("Telescope", "EQUATORIAL_EOD_COORD"); !ok {
			t.Error("sibling vector should survive")
		}
	})

	t.Run("last vector removes device", func(t *testing.T) {
		tr := newPopulated()
		tr.apply(DelProperty{Device: "Telescope", Name: "CONNECTION"}, noopLogger{})
		tr.apply(DelProperty{Device: "Telescope", Name: "EQUATORIAL_EOD_COORD"}, noopLogger{})
		if _, ok := tr.devices["Telescope"]; ok {
			t.Error("empty device should be removed")
		}
	})

	t.Run("whole device", func(t *testing.T) {
		tr := newPopulated()
		if !tr.apply(DelProperty{Device: "Telescope"}, noopLogger{}) {
			t.Fatal("device delete should mutate")
		}
		if _, ok := tr.devices["Telescope"]; ok {
			t.Error("device still present after delete")
		}
	})

	t.Run("unknown targets", func(t *testing.T) {
		tr := newPopulated()
		before := tr.revision
		if tr.apply(DelProperty{Device: "NoSuchDevice"}, noopLogger{}) {
			t.Error("delete for unknown device should not mutate")
		}
		if tr.apply(DelProperty{Device: "Telescope", Name: "NO_SUCH_VECTOR"}, noopLogger{}) {
			t.Error("delete for unknown vector should not mutate")
		}
		if tr.revision != before {
			t.Errorf("revision moved on dropped deletes: %d", tr.revision)
		}
	})
}

func TestTree_ApplyUnexpectedMessage(t *testing.T) {
	tr := newTree(0)
	if tr.apply(BroadcastMessage{Message: "note"}, noopLogger{}) {
		t.Error("broadcast notes must not reach the reducer as mutations")
	}
}

func TestVectorSnapshot_DeepCopy(t *testing.T) {
	tr := newTree(0)
	tr.apply(testDef("Telescope", "CONNECTION", KindSwitch, StateOk,
		PropertyDef{Name: "CONNECT", Label: "Connect", Value: "On"},
	), noopLogger{})
	v, _ := tr.lookup("Telescope", "CONNECTION")

	snap := v.snapshot()
	if snap.Values["CONNECT"] != "On" || snap.Labels["CONNECT"] != "Connect" {
		t.Fatalf("wrong snapshot content: %+v", snap)
	}
	if len(snap.Order) != 1 || snap.Order[0] != "CONNECT" {
		t.Fatalf("wrong snapshot order: %v", snap.Order)
	}

	snap.Values["CONNECT"] = "Off"
	snap.Order[0] = "mutated"
	if v.children["CONNECT"].value != "On" || v.order[0] != "CONNECT" {
		t.Error("snapshot mutation leaked into the tree")
	}
}
