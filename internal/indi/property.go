package indi

import "fmt"

// Device is a cheap name handle for one remote device. It holds no cached
// state: every access re-resolves against the live tree, because vectors
// can be deleted and recreated between calls.
type Device struct {
	c    *Client
	name string
}

// Device returns a handle for the named device. The device does not need to
// exist yet.
func (c *Client) Device(name string) Device {
	return Device{c: c, name: name}
}

// Name returns the device name.
func (d Device) Name() string { return d.name }

// Vector returns a handle for the named vector on this device.
func (d Device) Vector(name string) Vector {
	return Vector{c: d.c, device: d.name, name: name}
}

// CheckConnected fails with ErrNotConnected unless the device's CONNECTION
// vector reports CONNECT = On. Used as a precondition by every
// device-scoped operation except connecting itself.
func (d Device) CheckConnected() error {
	val, ok := d.Vector(VectorConnection).PropertyValueIfExists(PropertyConnect)
	if !ok || val != SwitchOn {
		return fmt.Errorf("%w: %s", ErrNotConnected, d.name)
	}
	return nil
}

// CheckConnected is a convenience forwarding to Device.CheckConnected.
func (c *Client) CheckConnected(device string) error {
	return c.Device(device).CheckConnected()
}

// Vector is a cheap name handle for one vector. Like Device it is stateless
// and re-resolves on every access.
type Vector struct {
	c      *Client
	device string
	name   string
}

// Device returns the owning device name.
func (v Vector) Device() string { return v.device }

// Name returns the vector name.
func (v Vector) Name() string { return v.name }

// resolve looks up the live vector. Callers must hold v.c.mu.
func (v Vector) resolve() (*vector, error) {
	vec, ok := v.c.t.lookup(v.device, v.name)
	if !ok {
		return nil, fmt.Errorf("%w: vector %s.%s", ErrNotFound, v.device, v.name)
	}
	return vec, nil
}

// Exists reports whether the vector is currently present in the tree.
func (v Vector) Exists() bool {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	_, ok := v.c.t.lookup(v.device, v.name)
	return ok
}

// State returns the vector's busy/idle/alert state. Fails with ErrNotFound
// if the vector does not exist.
func (v Vector) State() (VectorState, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, err := v.resolve()
	if err != nil {
		return "", err
	}
	return vec.state, nil
}

// Revision returns the tree revision stamped on the vector's last change.
func (v Vector) Revision() (uint64, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, err := v.resolve()
	if err != nil {
		return 0, err
	}
	return vec.revision, nil
}

// PropertyValue returns the value of the named child property. Fails with
// ErrNotFound if the vector or the child is missing.
func (v Vector) PropertyValue(name string) (string, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, err := v.resolve()
	if err != nil {
		return "", err
	}
	child, ok := vec.children[name]
	if !ok {
		return "", fmt.Errorf("%w: property %s.%s.%s", ErrNotFound, v.device, v.name, name)
	}
	return child.value, nil
}

// PropertyValueIfExists is the speculative variant of PropertyValue: absence
// of the vector or child yields ok=false instead of an error. Used where
// absence is expected, e.g. probing connection state before it is known.
func (v Vector) PropertyValueIfExists(name string) (string, bool) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, ok := v.c.t.lookup(v.device, v.name)
	if !ok {
		return "", false
	}
	child, ok := vec.children[name]
	if !ok {
		return "", false
	}
	return child.value, true
}

// PropertyLabelIfExists returns the child's UI label, with the same absence
// semantics as PropertyValueIfExists.
func (v Vector) PropertyLabelIfExists(name string) (string, bool) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, ok := v.c.t.lookup(v.device, v.name)
	if !ok {
		return "", false
	}
	child, ok := vec.children[name]
	if !ok {
		return "", false
	}
	return child.label, true
}

// Snapshot returns a deep copy of the vector's current state. Fails with
// ErrNotFound if the vector does not exist.
func (v Vector) Snapshot() (VectorSnapshot, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	vec, err := v.resolve()
	if err != nil {
		return VectorSnapshot{}, err
	}
	return vec.snapshot(), nil
}

// SetValues enqueues a command setting the listed child properties, in the
// given order, and optimistically marks the local vector Busy so concurrent
// waiters observe the in-flight command before the server acknowledges it.
//
// Only the listed properties are sent. The vector must exist; light vectors
// are read-only.
func (v Vector) SetValues(values []PropertyValue) error {
	v.c.mu.Lock()
	vec, err := v.resolve()
	if err != nil {
		v.c.mu.Unlock()
		return err
	}
	if vec.kind == KindLight {
		v.c.mu.Unlock()
		return fmt.Errorf("%w: light vector %s.%s", ErrReadOnly, v.device, v.name)
	}

	cmd := Command{
		Device: v.device,
		Vector: v.name,
		Kind:   vec.kind,
		Values: append([]PropertyValue(nil), values...),
	}
	vec.state = StateBusy
	vec.revision = v.c.t.bump()

	v.c.queue = append(v.c.queue, cmd)
	if v.c.connected {
		v.c.flushLocked()
	}
	v.c.mu.Unlock()

	// The optimistic Busy mark is a tree mutation like any other.
	v.c.notifyAll()
	return nil
}
