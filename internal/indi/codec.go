package indi

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// protocolVersion is the INDI protocol version announced in the discovery
// request.
const protocolVersion = "1.7"

// Decoder reads INDI messages from a byte stream.
//
// The stream is a never-terminated XML fragment: there is no root element
// and elements may arrive split across arbitrary chunk boundaries. The
// decoder only materialises one message at a time and never requires a
// complete document.
type Decoder struct {
	d *xml.Decoder
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{d: xml.NewDecoder(r)}
}

// Next returns the next decoded message from the stream.
//
// Unrecognised elements are consumed and reported as an error wrapping
// ErrProtocolDecode; the stream remains usable and the caller should log
// and call Next again. Any other error (including io.EOF and XML syntax
// errors) means the stream is dead.
func (d *Decoder) Next() (Message, error) {
	for {
		tok, err := d.d.Token()
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			// Whitespace, comments, and processing instructions
			// between elements are legal; skip them.
			continue
		}

		name := start.Name.Local
		switch {
		case name == "message":
			return d.decodeBroadcast(&start)
		case name == "delProperty":
			return d.decodeDelete(&start)
		default:
			if kind, ok := vectorKind(name, "def"); ok {
				return d.decodeDef(&start, kind)
			}
			if kind, ok := vectorKind(name, "set"); ok {
				return d.decodeSet(&start, kind)
			}
			// Unknown vocabulary: consume the element so framing
			// stays intact, then report it.
			if skipErr := d.d.Skip(); skipErr != nil {
				return nil, skipErr
			}
			return nil, fmt.Errorf("%w: unknown element <%s>", ErrProtocolDecode, name)
		}
	}
}

// vectorKind matches element names of the form {prefix}{Kind}Vector and
// returns the kind.
func vectorKind(name, prefix string) (PropertyKind, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "Vector") {
		return 0, false
	}
	switch name[len(prefix) : len(name)-len("Vector")] {
	case "Text":
		return KindText, true
	case "Number":
		return KindNumber, true
	case "Switch":
		return KindSwitch, true
	case "Light":
		return KindLight, true
	default:
		return 0, false
	}
}

// xmlVector is the shared shape of def and set vector elements.
type xmlVector struct {
	Device    string     `xml:"device,attr"`
	Name      string     `xml:"name,attr"`
	Label     string     `xml:"label,attr"`
	Group     string     `xml:"group,attr"`
	State     string     `xml:"state,attr"`
	Timeout   string     `xml:"timeout,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Message   string     `xml:"message,attr"`
	Items     []xmlChild `xml:",any"`
}

// xmlChild is one def<Kind> or one<Kind> child element. The value is the
// trimmed character data.
type xmlChild struct {
	XMLName xml.Name
	Name    string `xml:"name,attr"`
	Label   string `xml:"label,attr"`
	Value   string `xml:",chardata"`
}

func (d *Decoder) decodeDef(start *xml.StartElement, kind PropertyKind) (Message, error) {
	var raw xmlVector
	if err := d.d.DecodeElement(&raw, start); err != nil {
		return nil, fmt.Errorf("%w: <%s>: %w", ErrProtocolDecode, start.Name.Local, err)
	}

	msg := DefVector{
		Device:     raw.Device,
		Name:       raw.Name,
		Kind:       kind,
		Label:      raw.Label,
		Group:      raw.Group,
		State:      parseVectorState(raw.State),
		Timeout:    parseTimeout(raw.Timeout),
		Timestamp:  raw.Timestamp,
		Message:    raw.Message,
		Properties: make([]PropertyDef, 0, len(raw.Items)),
	}
	for _, item := range raw.Items {
		msg.Properties = append(msg.Properties, PropertyDef{
			Name:  item.Name,
			Label: item.Label,
			Value: strings.TrimSpace(item.Value),
		})
	}
	return msg, nil
}

func (d *Decoder) decodeSet(start *xml.StartElement, kind PropertyKind) (Message, error) {
	var raw xmlVector
	if err := d.d.DecodeElement(&raw, start); err != nil {
		return nil, fmt.Errorf("%w: <%s>: %w", ErrProtocolDecode, start.Name.Local, err)
	}

	msg := SetVector{
		Device:    raw.Device,
		Name:      raw.Name,
		Kind:      kind,
		HasState:  raw.State != "",
		Timeout:   parseTimeout(raw.Timeout),
		Timestamp: raw.Timestamp,
		Message:   raw.Message,
		Values:    make([]PropertyValue, 0, len(raw.Items)),
	}
	if msg.HasState {
		msg.State = parseVectorState(raw.State)
	}
	for _, item := range raw.Items {
		msg.Values = append(msg.Values, PropertyValue{
			Name:  item.Name,
			Value: strings.TrimSpace(item.Value),
		})
	}
	return msg, nil
}

func (d *Decoder) decodeDelete(start *xml.StartElement) (Message, error) {
	var raw struct {
		Device    string `xml:"device,attr"`
		Name      string `xml:"name,attr"`
		Timestamp string `xml:"timestamp,attr"`
		Message   string `xml:"message,attr"`
	}
	if err := d.d.DecodeElement(&raw, start); err != nil {
		return nil, fmt.Errorf("%w: <delProperty>: %w", ErrProtocolDecode, err)
	}
	return DelProperty{
		Device:    raw.Device,
		Name:      raw.Name,
		Timestamp: raw.Timestamp,
		Message:   raw.Message,
	}, nil
}

func (d *Decoder) decodeBroadcast(start *xml.StartElement) (Message, error) {
	var raw struct {
		Device    string `xml:"device,attr"`
		Timestamp string `xml:"timestamp,attr"`
		Message   string `xml:"message,attr"`
	}
	if err := d.d.DecodeElement(&raw, start); err != nil {
		return nil, fmt.Errorf("%w: <message>: %w", ErrProtocolDecode, err)
	}
	return BroadcastMessage{
		Device:    raw.Device,
		Timestamp: raw.Timestamp,
		Message:   raw.Message,
	}, nil
}

// parseTimeout converts a timeout attribute to seconds, defaulting to 0
// when absent or malformed.
func parseTimeout(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// xmlNewVector is the outgoing new<Kind>Vector element.
type xmlNewVector struct {
	XMLName xml.Name
	Device  string       `xml:"device,attr"`
	Name    string       `xml:"name,attr"`
	Items   []xmlNewItem `xml:",any"`
}

// xmlNewItem is one one<Kind> child of a command element.
type xmlNewItem struct {
	XMLName xml.Name
	Name    string `xml:"name,attr"`
	Value   string `xml:",chardata"`
}

// EncodeCommand serialises a command as a single well-formed
// new<Kind>Vector element with one child per value, in request order.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd.Kind == KindLight {
		return nil, fmt.Errorf("%w: light vector %s.%s", ErrReadOnly, cmd.Device, cmd.Vector)
	}

	el := xmlNewVector{
		XMLName: xml.Name{Local: "new" + cmd.Kind.String() + "Vector"},
		Device:  cmd.Device,
		Name:    cmd.Vector,
		Items:   make([]xmlNewItem, 0, len(cmd.Values)),
	}
	childName := "one" + cmd.Kind.String()
	for _, v := range cmd.Values {
		el.Items = append(el.Items, xmlNewItem{
			XMLName: xml.Name{Local: childName},
			Name:    v.Name,
			Value:   v.Value,
		})
	}

	data, err := xml.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("encoding command for %s.%s: %w", cmd.Device, cmd.Vector, err)
	}
	return append(data, '\n'), nil
}

// EncodeGetProperties returns the discovery request sent after every
// successful connect. The server answers with definitions for all devices.
func EncodeGetProperties() []byte {
	return fmt.Appendf(nil, "<getProperties version=%q/>\n", protocolVersion)
}
