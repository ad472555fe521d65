package indi

// property is one named value inside a vector.
type property struct {
	name  string
	label string
	value string
}

// vector is the stored form of an INDI property vector. Children keep the
// definition order in order so commands and snapshots are deterministic.
type vector struct {
	kind      PropertyKind
	label     string
	group     string
	state     VectorState
	timeout   float64
	timestamp string
	message   string
	revision  uint64
	order     []string
	children  map[string]*property
}

// tree is the authoritative device → vector → property mapping. It is owned
// exclusively by the Client; everything else reads it through name handles
// that re-resolve on every access.
type tree struct {
	devices  map[string]map[string]*vector
	revision uint64
}

func newTree(revision uint64) *tree {
	return &tree{
		devices:  make(map[string]map[string]*vector),
		revision: revision,
	}
}

// bump advances the global revision counter. Every branch that mutates the
// tree calls this exactly once.
func (t *tree) bump() uint64 {
	t.revision++
	return t.revision
}

// lookup resolves a vector by device and name.
func (t *tree) lookup(device, name string) (*vector, bool) {
	vectors, ok := t.devices[device]
	if !ok {
		return nil, false
	}
	v, ok := vectors[name]
	return v, ok
}

// apply reduces one decoded message into the tree and reports whether the
// tree changed. Broadcast notes never reach this function.
//
// Inconsistencies (update before definition, unknown child, delete of an
// unknown target) are logged and absorbed: the server is the source of
// truth and partial desynchronisation must not take the client down.
func (t *tree) apply(msg Message, log Logger) bool {
	switch m := msg.(type) {
	case DefVector:
		t.applyDef(m)
		return true
	case SetVector:
		return t.applySet(m, log)
	case DelProperty:
		return t.applyDelete(m, log)
	default:
		log.Warn("reducer received unexpected message", "type", typeName(msg))
		return false
	}
}

// applyDef inserts or replaces the vector wholesale.
func (t *tree) applyDef(m DefVector) {
	v := &vector{
		kind:      m.Kind,
		label:     m.Label,
		group:     m.Group,
		state:     m.State,
		timeout:   m.Timeout,
		timestamp: m.Timestamp,
		message:   m.Message,
		revision:  t.bump(),
		order:     make([]string, 0, len(m.Properties)),
		children:  make(map[string]*property, len(m.Properties)),
	}
	for _, p := range m.Properties {
		if _, dup := v.children[p.Name]; dup {
			continue
		}
		v.order = append(v.order, p.Name)
		v.children[p.Name] = &property{name: p.Name, label: p.Label, value: p.Value}
	}

	vectors, ok := t.devices[m.Device]
	if !ok {
		vectors = make(map[string]*vector)
		t.devices[m.Device] = vectors
	}
	vectors[m.Name] = v
}

// applySet overwrites vector-level fields and the listed child values. The
// vector must already exist; an update for an unknown vector is dropped.
func (t *tree) applySet(m SetVector, log Logger) bool {
	v, ok := t.lookup(m.Device, m.Name)
	if !ok {
		log.Warn("update for unknown vector ignored",
			"device", m.Device, "vector", m.Name)
		return false
	}

	if m.HasState {
		v.state = m.State
	}
	v.timeout = m.Timeout
	v.timestamp = m.Timestamp
	if m.Message != "" {
		v.message = m.Message
	}
	for _, val := range m.Values {
		child, ok := v.children[val.Name]
		if !ok {
			log.Warn("update for unknown property ignored",
				"device", m.Device, "vector", m.Name, "property", val.Name)
			continue
		}
		child.value = val.Value
	}
	v.revision = t.bump()
	return true
}

// applyDelete removes one vector, or the whole device when no vector name
// is given.
func (t *tree) applyDelete(m DelProperty, log Logger) bool {
	vectors, ok := t.devices[m.Device]
	if !ok {
		log.Warn("delete for unknown device ignored", "device", m.Device)
		return false
	}

	if m.Name == "" {
		delete(t.devices, m.Device)
		t.bump()
		return true
	}

	if _, ok := vectors[m.Name]; !ok {
		log.Warn("delete for unknown vector ignored",
			"device", m.Device, "vector", m.Name)
		return false
	}
	delete(vectors, m.Name)
	if len(vectors) == 0 {
		delete(t.devices, m.Device)
	}
	t.bump()
	return true
}

// snapshot returns a deep copy of one vector for external consumption.
func (v *vector) snapshot() VectorSnapshot {
	snap := VectorSnapshot{
		Kind:      v.kind,
		Label:     v.label,
		Group:     v.group,
		State:     v.state,
		Timeout:   v.timeout,
		Timestamp: v.timestamp,
		Message:   v.message,
		Revision:  v.revision,
		Order:     make([]string, len(v.order)),
		Values:    make(map[string]string, len(v.children)),
		Labels:    make(map[string]string, len(v.children)),
	}
	copy(snap.Order, v.order)
	for name, child := range v.children {
		snap.Values[name] = child.value
		snap.Labels[name] = child.label
	}
	return snap
}

// VectorSnapshot is a deep copy of one vector's state at a point in time.
// It is detached from the live tree: holding a snapshot across waits is
// safe but may go stale.
type VectorSnapshot struct {
	Kind      PropertyKind
	Label     string
	Group     string
	State     VectorState
	Timeout   float64
	Timestamp string
	Message   string
	Revision  uint64
	Order     []string
	Values    map[string]string
	Labels    map[string]string
}

func typeName(msg Message) string {
	switch msg.(type) {
	case DefVector:
		return "DefVector"
	case SetVector:
		return "SetVector"
	case DelProperty:
		return "DelProperty"
	case BroadcastMessage:
		return "BroadcastMessage"
	default:
		return "unknown"
	}
}
