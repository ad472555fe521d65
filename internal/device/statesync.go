package device

import (
	"sort"
	"sync"

	"github.com/aurora-obs/aurora-core/internal/indi"
)

// Synchronizer is the state-synchronisation collaborator the projection is
// pushed to. Implementations typically publish to a bus or feed a UI
// backend; this package only guarantees each method is called once per
// logical change, not once per wire message.
type Synchronizer interface {
	// SyncDeviceList is called when the set of known devices changes.
	SyncDeviceList(devices []string)

	// SyncVector is called when a vector is created or updated.
	SyncVector(device, vector string, snap indi.VectorSnapshot)

	// RemoveVector is called when a vector disappears from the tree.
	RemoveVector(device, vector string)

	// SyncDriverGroups is called when the driver-to-group side table
	// changes.
	SyncDriverGroups(groups map[string]string)
}

// TreeSource is the slice of the INDI client the Syncer reads from.
type TreeSource interface {
	AddListener(fn func()) int
	RemoveListener(id int)
	TreeSnapshot() map[string]map[string]indi.VectorSnapshot
}

// Ensure the concrete client satisfies the interface.
var _ TreeSource = (*indi.Client)(nil)

// Syncer keeps the externally-visible projection (device tree plus the
// driverToGroup side table) in step with the live tree.
//
// Mutations are coalesced: the tree listener only marks the projection
// dirty, and a single background goroutine diffs and pushes batches. A
// burst of wire messages therefore produces one synchronisation pass.
type Syncer struct {
	source TreeSource
	target Synchronizer
	logger Logger

	dirty      chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup
	listenerID int

	// Last pushed projection, used for diffing. Only the sync goroutine
	// touches these.
	lastDevices []string
	lastRevs    map[string]map[string]uint64
	lastGroups  map[string]string
}

// NewSyncer creates a syncer pushing changes from source to target.
func NewSyncer(source TreeSource, target Synchronizer) *Syncer {
	return &Syncer{
		source:   source,
		target:   target,
		logger:   noopLogger{},
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		lastRevs: make(map[string]map[string]uint64),
	}
}

// SetLogger sets the logger for the syncer.
func (s *Syncer) SetLogger(logger Logger) {
	s.logger = logger
}

// Start registers the tree listener and launches the sync goroutine.
func (s *Syncer) Start() {
	s.listenerID = s.source.AddListener(func() {
		select {
		case s.dirty <- struct{}{}:
		default:
			// A pass is already pending; it will pick this change up.
		}
	})
	s.wg.Add(1)
	go s.loop()
}

// Stop deregisters the listener and waits for the sync goroutine to exit.
func (s *Syncer) Stop() {
	s.source.RemoveListener(s.listenerID)
	close(s.done)
	s.wg.Wait()
}

func (s *Syncer) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
			s.flush()
		}
	}
}

// flush diffs the current tree against the last pushed projection and
// notifies the synchroniser about every difference.
func (s *Syncer) flush() {
	tree := s.source.TreeSnapshot()

	devices := make([]string, 0, len(tree))
	for name := range tree {
		devices = append(devices, name)
	}
	sort.Strings(devices)
	if !equalStrings(devices, s.lastDevices) {
		s.target.SyncDeviceList(devices)
		s.lastDevices = devices
	}

	// Created and updated vectors, detected via per-vector revisions.
	for _, device := range devices {
		vectors := tree[device]
		names := make([]string, 0, len(vectors))
		for name := range vectors {
			names = append(names, name)
		}
		sort.Strings(names)

		known := s.lastRevs[device]
		if known == nil {
			known = make(map[string]uint64)
			s.lastRevs[device] = known
		}
		for _, name := range names {
			snap := vectors[name]
			if known[name] != snap.Revision {
				s.target.SyncVector(device, name, snap)
				known[name] = snap.Revision
			}
		}
		for name := range known {
			if _, ok := vectors[name]; !ok {
				s.target.RemoveVector(device, name)
				delete(known, name)
			}
		}
	}

	// Vectors of devices that disappeared entirely.
	for device, known := range s.lastRevs {
		if _, ok := tree[device]; ok {
			continue
		}
		for name := range known {
			s.target.RemoveVector(device, name)
		}
		delete(s.lastRevs, device)
	}

	groups := driverGroups(tree)
	if !equalGroups(groups, s.lastGroups) {
		s.target.SyncDriverGroups(groups)
		s.lastGroups = groups
	}
}

// driverGroups builds the driverToGroup side table from the tree: each
// device maps to the UI group its driver declared. The CONNECTION vector's
// group wins; otherwise the first non-empty group in name order.
func driverGroups(tree map[string]map[string]indi.VectorSnapshot) map[string]string {
	groups := make(map[string]string)
	for device, vectors := range tree {
		if conn, ok := vectors[indi.VectorConnection]; ok && conn.Group != "" {
			groups[device] = conn.Group
			continue
		}
		names := make([]string, 0, len(vectors))
		for name := range vectors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if g := vectors[name].Group; g != "" {
				groups[device] = g
				break
			}
		}
	}
	return groups
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalGroups(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
