package indi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// vectorWaitTimeout bounds how long WaitVectors waits for a vector to be
// defined. Drivers announce their vectors within moments of connecting;
// anything slower means the vector is not coming.
const vectorWaitTimeout = 5 * time.Second

// ValueProvider computes the desired child values for SetParam from the
// vector's current state. Use StaticValues when the values do not depend on
// current state.
type ValueProvider func(snap VectorSnapshot) (map[string]string, error)

// StaticValues returns a ValueProvider that always yields the given map.
func StaticValues(values map[string]string) ValueProvider {
	return func(VectorSnapshot) (map[string]string, error) {
		return values, nil
	}
}

// SetParamOptions tunes SetParam behaviour.
type SetParamOptions struct {
	// Force sends all provided values even when they match the current
	// ones.
	Force bool

	// NoWait skips the initial wait for the vector to leave Busy.
	NoWait bool

	// OnCancelAbort, when set, fires once if the context is cancelled
	// after the command has been issued. It gives the caller a chance to
	// send an abort command; the busy-wait itself is not interrupted.
	OnCancelAbort func()
}

// WaitVectors waits until all named vectors exist on the device, bounded by
// a fixed window. Exceeding the window is reported as ErrVectorMissing
// naming the device and the vectors still absent, not as a generic timeout.
func (c *Client) WaitVectors(ctx context.Context, device string, vectorIDs []string) error {
	missing := func() []string {
		d := c.Device(device)
		var out []string
		for _, id := range vectorIDs {
			if !d.Vector(id).Exists() {
				out = append(out, id)
			}
		}
		return out
	}

	wctx, cancel := context.WithTimeout(ctx, vectorWaitTimeout)
	defer cancel()

	err := c.Wait(wctx, false, func() (bool, error) {
		return len(missing()) == 0, nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCancelled) && errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: device %q vectors [%s]",
			ErrVectorMissing, device, strings.Join(missing(), ", "))
	}
	return err
}

// SetParam drives one vector to the desired values and waits for the
// command to complete.
//
// Sequence: require the device connected (unless targeting CONNECTION
// itself), wait for the vector to exist, wait for it to leave Busy (unless
// NoWait), compute the desired values, diff them against the current ones
// (no-op writes are skipped unless Force), issue the changed subset in
// deterministic key order, and wait for Busy to clear again.
//
// Cancellation during the final busy-wait does not abandon the wait: the
// OnCancelAbort hook (if any) fires so the caller can issue an abort, the
// wait runs to completion, and ErrCancelled is surfaced afterwards.
//
// Returns the values actually written; an empty slice means the vector
// already matched.
//
// Known limitation: the busy-wait observes the vector, not the individual
// command, so a concurrent writer toggling the same vector can satisfy it.
func (c *Client) SetParam(ctx context.Context, device, vectorID string, provider ValueProvider, opts SetParamOptions) ([]PropertyValue, error) {
	d := c.Device(device)
	if vectorID != VectorConnection {
		if err := d.CheckConnected(); err != nil {
			return nil, err
		}
	}

	if err := c.WaitVectors(ctx, device, []string{vectorID}); err != nil {
		return nil, err
	}
	vec := d.Vector(vectorID)

	if !opts.NoWait {
		if err := c.Wait(ctx, false, vectorIdle(vec)); err != nil {
			return nil, err
		}
	}

	snap, err := vec.Snapshot()
	if err != nil {
		return nil, err
	}
	desired, err := provider(snap)
	if err != nil {
		return nil, err
	}

	changed := diffValues(snap.Values, desired, opts.Force)
	if len(changed) == 0 {
		return []PropertyValue{}, nil
	}

	if err := vec.SetValues(changed); err != nil {
		return nil, err
	}

	if opts.OnCancelAbort != nil {
		stop := context.AfterFunc(ctx, opts.OnCancelAbort)
		defer stop()
	}

	// The busy-wait deliberately survives cancellation: the command is
	// already on the wire and the vector has to settle either way.
	if err := c.Wait(context.WithoutCancel(ctx), false, vectorIdle(vec)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelledErr(err)
	}
	return changed, nil
}

// Activate turns a momentary switch property On and waits for the server
// to read it back. Unlike SetParam it does not wait for Busy to clear:
// some vectors stay busy for as long as the property is active.
//
// Idempotent: if the vector is already Busy with the property On, Activate
// returns immediately without sending anything.
func (c *Client) Activate(ctx context.Context, device, vectorID, propID string) error {
	if err := c.WaitVectors(ctx, device, []string{vectorID}); err != nil {
		return err
	}
	vec := c.Device(device).Vector(vectorID)

	state, err := vec.State()
	if err != nil {
		return err
	}
	if val, ok := vec.PropertyValueIfExists(propID); ok && state == StateBusy && val == SwitchOn {
		return nil
	}

	if err := vec.SetValues([]PropertyValue{{Name: propID, Value: SwitchOn}}); err != nil {
		return err
	}
	return c.Wait(ctx, false, func() (bool, error) {
		val, ok := vec.PropertyValueIfExists(propID)
		return ok && val == SwitchOn, nil
	})
}

// PulseParam energises a momentary property and holds it until cancelled.
//
// The vector must exist and be idle; a Busy vector fails with
// ErrAlreadyPending rather than restarting whatever is in flight. The
// property is set On and the call waits for Busy to clear, which
// correctly-behaved hardware never does in this role, so natural
// completion is an anomaly (ErrPropertyStopped). On every exit path,
// including cancellation and the anomaly, the property is set back Off so
// the device is never left energised.
func (c *Client) PulseParam(ctx context.Context, device, vectorID, propID string) error {
	if err := c.WaitVectors(ctx, device, []string{vectorID}); err != nil {
		return err
	}
	vec := c.Device(device).Vector(vectorID)

	state, err := vec.State()
	if err != nil {
		return err
	}
	if state == StateBusy {
		return fmt.Errorf("%w: %s.%s", ErrAlreadyPending, device, vectorID)
	}

	if err := vec.SetValues([]PropertyValue{{Name: propID, Value: SwitchOn}}); err != nil {
		return err
	}
	defer func() {
		if offErr := vec.SetValues([]PropertyValue{{Name: propID, Value: SwitchOff}}); offErr != nil {
			c.log().Warn("pulse cleanup could not reset property",
				"device", device, "vector", vectorID, "property", propID, "error", offErr)
		}
	}()

	if err := c.Wait(ctx, false, vectorIdle(vec)); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s.%s.%s", ErrPropertyStopped, device, vectorID, propID)
}

// vectorIdle is the busy-wait predicate: true once the vector exists and is
// not Busy. A vector deleted mid-wait fails the wait with ErrNotFound.
func vectorIdle(vec Vector) func() (bool, error) {
	return func() (bool, error) {
		state, err := vec.State()
		if err != nil {
			return false, err
		}
		return state != StateBusy, nil
	}
}

// diffValues returns the desired values that differ from current (or all of
// them under force), in sorted key order so command payloads are
// deterministic. Desired keys absent from the vector are passed through;
// the server is the authority on unknown names.
func diffValues(current, desired map[string]string, force bool) []PropertyValue {
	keys := make([]string, 0, len(desired))
	for k := range desired {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []PropertyValue
	for _, k := range keys {
		cur, ok := current[k]
		if force || !ok || cur != desired[k] {
			changed = append(changed, PropertyValue{Name: k, Value: desired[k]})
		}
	}
	return changed
}
