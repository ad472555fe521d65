package indi

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestDecoder_DefVector(t *testing.T) {
	stream := `<defNumberVector device="Focuser" name="FOCUS_SPEED" label="Speed" group="Main Control" state="Ok" timeout="60" timestamp="2026-08-27T21:00:00">
  <defNumber name="SPEED" label="Steps/s">
    250
  </defNumber>
  <defNumber name="ACCEL">10</defNumber>
</defNumberVector>`

	dec := NewDecoder(strings.NewReader(stream))
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}

	def, ok := msg.(DefVector)
	if !ok {
		t.Fatalf("expected DefVector, got %T", msg)
	}
	if def.Device != "Focuser" || def.Name != "FOCUS_SPEED" {
		t.Errorf("wrong identity: %s.%s", def.Device, def.Name)
	}
	if def.Kind != KindNumber {
		t.Errorf("expected KindNumber, got %v", def.Kind)
	}
	if def.Label != "Speed" || def.Group != "Main Control" {
		t.Errorf("wrong label/group: %q/%q", def.Label, def.Group)
	}
	if def.State != StateOk {
		t.Errorf("expected Ok state, got %q", def.State)
	}
	if def.Timeout != 60 {
		t.Errorf("expected timeout 60, got %v", def.Timeout)
	}
	if def.Timestamp != "2026-08-27T21:00:00" {
		t.Errorf("wrong timestamp: %q", def.Timestamp)
	}
	if len(def.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(def.Properties))
	}
	if def.Properties[0].Name != "SPEED" || def.Properties[0].Label != "Steps/s" {
		t.Errorf("wrong first property: %+v", def.Properties[0])
	}
	if def.Properties[0].Value != "250" {
		t.Errorf("character data not trimmed: %q", def.Properties[0].Value)
	}
	if def.Properties[1].Name != "ACCEL" || def.Properties[1].Value != "10" {
		t.Errorf("wrong second property: %+v", def.Properties[1])
	}
}

func TestDecoder_SetVector(t *testing.T) {
	tests := []struct {
		name      string
		stream    string
		wantKind  PropertyKind
		wantState VectorState
		hasState  bool
	}{
		{
			name:      "with state",
			stream:    `<setSwitchVector device="Telescope" name="CONNECTION" state="Busy"><oneSwitch name="CONNECT">On</oneSwitch></setSwitchVector>`,
			wantKind:  KindSwitch,
			wantState: StateBusy,
			hasState:  true,
		},
		{
			name:     "without state",
			stream:   `<setTextVector device="Telescope" name="DRIVER_INFO"><oneText name="NAME">SynScan</oneText></setTextVector>`,
			wantKind: KindText,
			hasState: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.stream))
			msg, err := dec.Next()
			if err != nil {
				t.Fatalf("Next() failed: %v", err)
			}
			set, ok := msg.(SetVector)
			if !ok {
				t.Fatalf("expected SetVector, got %T", msg)
			}
			if set.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, set.Kind)
			}
			if set.HasState != tt.hasState {
				t.Errorf("expected HasState=%v, got %v", tt.hasState, set.HasState)
			}
			if tt.hasState && set.State != tt.wantState {
				t.Errorf("expected state %q, got %q", tt.wantState, set.State)
			}
			if len(set.Values) != 1 {
				t.Fatalf("expected 1 value, got %d", len(set.Values))
			}
		})
	}
}

func TestDecoder_DefLightVector(t *testing.T) {
	stream := `<defLightVector device="Dome" name="WEATHER_STATUS" state="Alert"><defLight name="RAIN">Alert</defLight></defLightVector>`
	dec := NewDecoder(strings.NewReader(stream))
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	def, ok := msg.(DefVector)
	if !ok {
		t.Fatalf("expected DefVector, got %T", msg)
	}
	if def.Kind != KindLight {
		t.Errorf("expected KindLight, got %v", def.Kind)
	}
	if def.Properties[0].Value != "Alert" {
		t.Errorf("wrong light value: %q", def.Properties[0].Value)
	}
}

func TestDecoder_DelProperty(t *testing.T) {
	tests := []struct {
		name       string
		stream     string
		wantDevice string
		wantName   string
	}{
		{
			name:       "single vector",
			stream:     `<delProperty device="CCD" name="CCD_EXPOSURE" message="gone"/>`,
			wantDevice: "CCD",
			wantName:   "CCD_EXPOSURE",
		},
		{
			name:       "whole device",
			stream:     `<delProperty device="CCD"/>`,
			wantDevice: "CCD",
			wantName:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.stream))
			msg, err := dec.Next()
			if err != nil {
				t.Fatalf("Next() failed: %v", err)
			}
			del, ok := msg.(DelProperty)
			if !ok {
				t.Fatalf("expected DelProperty, got %T", msg)
			}
			if del.Device != tt.wantDevice || del.Name != tt.wantName {
				t.Errorf("got %s.%q, want %s.%q", del.Device, del.Name, tt.wantDevice, tt.wantName)
			}
		})
	}
}

func TestDecoder_BroadcastMessage(t *testing.T) {
	stream := `<message device="Telescope" timestamp="2026-08-27T21:05:00" message="Slew complete"/>`
	dec := NewDecoder(strings.NewReader(stream))
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	note, ok := msg.(BroadcastMessage)
	if !ok {
		t.Fatalf("expected BroadcastMessage, got %T", msg)
	}
	if note.Device != "Telescope" || note.Message != "Slew complete" {
		t.Errorf("wrong note: %+v", note)
	}
}

func TestDecoder_UnknownElementRecoverable(t *testing.T) {
	stream := `<enableBLOB device="CCD">Never</enableBLOB><message message="still here"/>`
	dec := NewDecoder(strings.NewReader(stream))

	_, err := dec.Next()
	if !errors.Is(err, ErrProtocolDecode) {
		t.Fatalf("expected ErrProtocolDecode, got %v", err)
	}
	if !strings.Contains(err.Error(), "enableBLOB") {
		t.Errorf("error should name the element: %v", err)
	}

	// The offending element was consumed; the stream continues.
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("stream did not recover: %v", err)
	}
	note, ok := msg.(BroadcastMessage)
	if !ok || note.Message != "still here" {
		t.Errorf("expected following broadcast, got %T %+v", msg, msg)
	}
}

func TestDecoder_SkipsInterElementNoise(t *testing.T) {
	stream := "\n  <!-- indiserver 2.0 -->\n  <message message=\"up\"/>\n"
	dec := NewDecoder(strings.NewReader(stream))
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if _, ok := msg.(BroadcastMessage); !ok {
		t.Fatalf("expected BroadcastMessage, got %T", msg)
	}
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

// Elements split across arbitrary read boundaries must decode the same as a
// single contiguous read.
func TestDecoder_FragmentedStream(t *testing.T) {
	stream := `<defSwitchVector device="Telescope" name="CONNECTION" state="Idle"><defSwitch name="CONNECT">Off</defSwitch></defSwitchVector>` +
		`<setSwitchVector device="Telescope" name="CONNECTION" state="Ok"><oneSwitch name="CONNECT">On</oneSwitch></setSwitchVector>`

	dec := NewDecoder(iotest.OneByteReader(strings.NewReader(stream)))

	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("first Next() failed: %v", err)
	}
	if _, ok := msg.(DefVector); !ok {
		t.Fatalf("expected DefVector, got %T", msg)
	}

	msg, err = dec.Next()
	if err != nil {
		t.Fatalf("second Next() failed: %v", err)
	}
	set, ok := msg.(SetVector)
	if !ok {
		t.Fatalf("expected SetVector, got %T", msg)
	}
	if set.Values[0].Value != "On" {
		t.Errorf("wrong value after fragmented decode: %q", set.Values[0].Value)
	}
}

func TestEncodeCommand(t *testing.T) {
	data, err := EncodeCommand(Command{
		Device: "Telescope",
		Vector: "CONNECTION",
		Kind:   KindSwitch,
		Values: []PropertyValue{
			{Name: "CONNECT", Value: "On"},
			{Name: "DISCONNECT", Value: "Off"},
		},
	})
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	want := `<newSwitchVector device="Telescope" name="CONNECTION">` +
		`<oneSwitch name="CONNECT">On</oneSwitch>` +
		`<oneSwitch name="DISCONNECT">Off</oneSwitch>` +
		`</newSwitchVector>` + "\n"
	if string(data) != want {
		t.Errorf("wrong encoding:\n got: %s\nwant: %s", data, want)
	}
}

func TestEncodeCommand_NumberKind(t *testing.T) {
	data, err := EncodeCommand(Command{
		Device: "Focuser",
		Vector: "ABS_FOCUS_POSITION",
		Kind:   KindNumber,
		Values: []PropertyValue{{Name: "FOCUS_ABSOLUTE_POSITION", Value: "5200"}},
	})
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}
	if !strings.Contains(string(data), "<newNumberVector ") ||
		!strings.Contains(string(data), `<oneNumber name="FOCUS_ABSOLUTE_POSITION">5200</oneNumber>`) {
		t.Errorf("wrong number encoding: %s", data)
	}
}

func TestEncodeCommand_LightVectorRejected(t *testing.T) {
	_, err := EncodeCommand(Command{
		Device: "Dome",
		Vector: "WEATHER_STATUS",
		Kind:   KindLight,
		Values: []PropertyValue{{Name: "RAIN", Value: "Ok"}},
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestEncodeGetProperties(t *testing.T) {
	want := "<getProperties version=\"1.7\"/>\n"
	if got := string(EncodeGetProperties()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"60", 60},
		{"2.5", 2.5},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseTimeout(tt.in); got != tt.want {
			t.Errorf("parseTimeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseVectorState(t *testing.T) {
	tests := []struct {
		in   string
		want VectorState
	}{
		{"Idle", StateIdle},
		{"Ok", StateOk},
		{"Busy", StateBusy},
		{"Alert", StateAlert},
		{"", StateAlert},
		{"Bogus", StateAlert},
	}
	for _, tt := range tests {
		if got := parseVectorState(tt.in); got != tt.want {
			t.Errorf("parseVectorState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPropertyKindString(t *testing.T) {
	tests := []struct {
		kind PropertyKind
		want string
	}{
		{KindText, "Text"},
		{KindNumber, "Number"},
		{KindSwitch, "Switch"},
		{KindLight, "Light"},
		{PropertyKind(9), "PropertyKind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
