package indi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for the INDI connection.
const (
	// DefaultPort is the standard indiserver TCP port.
	DefaultPort = 7624

	// defaultConnectTimeout is the maximum time to wait for a dial.
	defaultConnectTimeout = 10 * time.Second

	// defaultWriteTimeout is the timeout for command writes.
	defaultWriteTimeout = 5 * time.Second

	// defaultReconnectInterval is the fixed delay between reconnection
	// attempts. The INDI server is expected to come and go; a short flat
	// backoff keeps recovery prompt without hammering the host.
	defaultReconnectInterval = 2 * time.Second
)

// Config holds INDI server connection configuration.
type Config struct {
	// Host is the indiserver hostname or IP. Default: "localhost".
	Host string

	// Port is the indiserver TCP port. Default: 7624.
	Port int

	// ConnectTimeout is the maximum time to wait for a dial.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// WriteTimeout is the timeout for command writes.
	// Default: 5 seconds.
	WriteTimeout time.Duration

	// ReconnectInterval is the delay between reconnection attempts.
	// Default: 2 seconds.
	ReconnectInterval time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	MessagesRx   uint64
	CommandsTx   uint64
	DecodeErrors uint64
	Notes        uint64
	Connects     uint64
	Connected    bool
	Revision     uint64
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// waiter is one registered condition wait. The channel has capacity one;
// coalescing wake-ups is safe because predicates are level-triggered.
type waiter struct {
	ch chan struct{}
}

// Client maintains one connection to an INDI server at a time and owns the
// device tree it mirrors.
//
// Lifecycle: New → Start → (reconnect loop until) Close. On disconnect the
// tree is cleared, the command queue dropped, and every waiter notified, so
// callers observe disconnection as deletion of every property.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Tree mutations are applied only by the connection's read loop, one
//     message at a time, under the client mutex.
type Client struct {
	cfg Config

	logger   Logger
	loggerMu sync.RWMutex

	// mu guards the tree, connection state, command queue, listener
	// registries, and the notification log.
	mu               sync.Mutex
	t                *tree
	connected        bool
	conn             net.Conn
	queue            []Command
	waiters          map[*waiter]struct{}
	listeners        map[int]func()
	messageListeners map[int]func(Notification)
	nextListenerID   int
	notes            *notificationLog

	done    *closeOnce
	started atomic.Bool
	wg      sync.WaitGroup

	// Statistics (atomic for cheap reads)
	messagesRx   atomic.Uint64
	commandsTx   atomic.Uint64
	decodeErrors atomic.Uint64
	notesRx      atomic.Uint64
	connects     atomic.Uint64
}

// New creates a client for the given server. The client is inert until
// Start is called.
func New(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	return &Client{
		cfg:              cfg,
		logger:           noopLogger{},
		t:                newTree(0),
		waiters:          make(map[*waiter]struct{}),
		listeners:        make(map[int]func()),
		messageListeners: make(map[int]func(Notification)),
		notes:            newNotificationLog(time.Now),
		done:             newCloseOnce(),
	}
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) log() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Start launches the connection supervisor. It returns immediately; the
// supervisor dials, reads, and reconnects until Close is called. Calling
// Start more than once is a no-op.
func (c *Client) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go c.run()
}

// Close stops the supervisor, drops the connection, and waits for the read
// loop to exit. Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.log().Info("indi client closed")
	return nil
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// run is the connection supervisor loop: dial, serve, tear down, back off,
// repeat until shutdown.
func (c *Client) run() {
	defer c.wg.Done()

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	for {
		if c.isClosed() {
			return
		}

		conn, err := c.dial(addr)
		if err != nil {
			c.log().Warn("indi server unreachable",
				"addr", addr, "error", err, "retry_in", c.cfg.ReconnectInterval.String())
			if !c.sleepBackoff() {
				return
			}
			continue
		}

		c.handleConnect(conn)
		c.readLoop(conn)
		c.handleDisconnect(conn)

		if !c.sleepBackoff() {
			return
		}
	}
}

func (c *Client) dial(addr string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, addr, err)
	}
	return conn, nil
}

// sleepBackoff waits one reconnect interval. Returns false if shutdown was
// signalled during the wait.
func (c *Client) sleepBackoff() bool {
	select {
	case <-c.done.Done():
		return false
	case <-time.After(c.cfg.ReconnectInterval):
		return true
	}
}

// handleConnect installs the new connection, resets the tree, and sends the
// discovery request. The revision counter carries across reconnects so it
// stays strictly increasing for the process lifetime.
func (c *Client) handleConnect(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.t = newTree(c.t.revision)
	c.t.bump()
	if err := c.writeLocked(EncodeGetProperties()); err != nil {
		c.log().Error("sending discovery request failed", "error", err)
	}
	c.flushLocked()
	c.mu.Unlock()

	c.connects.Add(1)
	c.log().Info("connected to indi server",
		"host", c.cfg.Host, "port", c.cfg.Port)
	c.notifyAll()
}

// handleDisconnect tears down the connection: the tree is cleared (every
// vector implicitly deleted), the queue dropped, and all waiters notified
// so in-flight waits observe the disconnection.
func (c *Client) handleDisconnect(conn net.Conn) {
	conn.Close()

	c.mu.Lock()
	c.connected = false
	c.conn = nil
	c.queue = nil
	c.t = newTree(c.t.revision)
	c.t.bump()
	c.mu.Unlock()

	c.log().Info("disconnected from indi server",
		"host", c.cfg.Host, "port", c.cfg.Port)
	c.notifyAll()
}

// readLoop decodes and dispatches messages until the stream dies. Decode
// errors for unknown vocabulary are absorbed; anything else ends the
// connection.
func (c *Client) readLoop(conn net.Conn) {
	dec := NewDecoder(conn)
	for {
		msg, err := dec.Next()
		if err != nil {
			if errors.Is(err, ErrProtocolDecode) {
				c.decodeErrors.Add(1)
				c.log().Warn("protocol decode error", "error", err)
				continue
			}
			if !c.isClosed() {
				c.log().Warn("indi stream ended", "error", err)
			}
			return
		}
		c.messagesRx.Add(1)
		c.dispatch(msg)
	}
}

// dispatch routes one decoded message: broadcast notes feed the
// notification log and message listeners; everything else goes through the
// reducer and, on mutation, wakes the listener set.
func (c *Client) dispatch(msg Message) {
	if note, ok := msg.(BroadcastMessage); ok {
		c.notesRx.Add(1)
		c.mu.Lock()
		n := c.notes.add(note)
		fns := make([]func(Notification), 0, len(c.messageListeners))
		for _, fn := range c.messageListeners {
			fns = append(fns, fn)
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(n)
		}
		return
	}

	c.mu.Lock()
	mutated := c.t.apply(msg, c.log())
	c.mu.Unlock()

	if mutated {
		c.notifyAll()
	}
}

// notifyAll wakes every waiter and invokes every tree listener. The active
// sets are snapshotted under the lock first, so a listener adding or
// removing listeners mid-dispatch cannot corrupt the pass: everyone
// registered at the start of the pass fires exactly once.
func (c *Client) notifyAll() {
	c.mu.Lock()
	ws := make([]*waiter, 0, len(c.waiters))
	for w := range c.waiters {
		ws = append(ws, w)
	}
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, w := range ws {
		select {
		case w.ch <- struct{}{}:
		default:
			// Waiter already has a pending wake-up.
		}
	}
	for _, fn := range fns {
		fn()
	}
}

// writeLocked writes raw bytes to the connection with a deadline. Callers
// must hold c.mu and have verified the connection exists.
func (c *Client) writeLocked(data []byte) error {
	if c.conn == nil {
		return ErrDisconnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// flushLocked drains the command queue onto the wire. A write failure
// closes the connection so the supervisor reconnects; the queue is cleared
// on disconnect, matching the tree.
func (c *Client) flushLocked() {
	for len(c.queue) > 0 && c.connected {
		cmd := c.queue[0]
		data, err := EncodeCommand(cmd)
		if err != nil {
			c.log().Error("dropping unencodable command",
				"device", cmd.Device, "vector", cmd.Vector, "error", err)
			c.queue = c.queue[1:]
			continue
		}
		if err := c.writeLocked(data); err != nil {
			c.log().Error("command write failed, closing connection", "error", err)
			if c.conn != nil {
				c.conn.Close()
			}
			return
		}
		c.commandsTx.Add(1)
		c.queue = c.queue[1:]
	}
}

// Wait blocks until pred returns true, the context is cancelled, or the
// connection dies (unless allowDisconnected).
//
// The predicate is evaluated once up front; if already true the wait
// resolves immediately and registers no listener. Otherwise it is
// re-evaluated after every tree mutation, including the implicit mutation
// of a disconnect. A predicate error fails the wait. Exactly one outcome is
// produced and the listener registration is always released.
func (c *Client) Wait(ctx context.Context, allowDisconnected bool, pred func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}

	c.mu.Lock()
	dead := !c.connected
	c.mu.Unlock()
	if dead && !allowDisconnected {
		return ErrDisconnected
	}

	if ok, err := pred(); err != nil {
		return err
	} else if ok {
		return nil
	}

	w := &waiter{ch: make(chan struct{}, 1)}
	c.mu.Lock()
	c.waiters[w] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, w)
		c.mu.Unlock()
	}()

	// Re-check before the first select: a mutation between the initial
	// evaluation and the registration above would have notified nobody.
	for {
		c.mu.Lock()
		dead := !c.connected
		c.mu.Unlock()
		if dead && !allowDisconnected {
			return ErrDisconnected
		}

		if ok, err := pred(); err != nil {
			return err
		} else if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return cancelledErr(ctx.Err())
		case <-w.ch:
		}
	}
}

// cancelledErr tags a context error as cooperative cancellation.
func cancelledErr(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// AddListener registers a callback fired after every tree mutation,
// including connect and disconnect. It returns a handle for RemoveListener.
func (c *Client) AddListener(fn func()) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListenerID++
	c.listeners[c.nextListenerID] = fn
	return c.nextListenerID
}

// RemoveListener deregisters a tree listener. Unknown handles are a no-op.
func (c *Client) RemoveListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, id)
}

// AddMessageListener registers a callback fired with every broadcast note.
// It returns a handle for RemoveMessageListener.
func (c *Client) AddMessageListener(fn func(Notification)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListenerID++
	c.messageListeners[c.nextListenerID] = fn
	return c.nextListenerID
}

// RemoveMessageListener deregisters a broadcast-note listener.
func (c *Client) RemoveMessageListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.messageListeners, id)
}

// IsConnected reports whether the client currently holds a live connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Revision returns the current global tree revision. It increases on
// connect, disconnect, and every applied definition, update, and deletion.
func (c *Client) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.revision
}

// DeviceNames returns the names of all devices currently in the tree,
// sorted.
func (c *Client) DeviceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.t.devices))
	for name := range c.t.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TreeSnapshot returns a deep copy of the whole device tree.
func (c *Client) TreeSnapshot() map[string]map[string]VectorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]map[string]VectorSnapshot, len(c.t.devices))
	for device, vectors := range c.t.devices {
		dv := make(map[string]VectorSnapshot, len(vectors))
		for name, v := range vectors {
			dv[name] = v.snapshot()
		}
		out[device] = dv
	}
	return out
}

// Notifications returns the retained broadcast notes, oldest first.
func (c *Client) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notes.all()
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		MessagesRx:   c.messagesRx.Load(),
		CommandsTx:   c.commandsTx.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Notes:        c.notesRx.Load(),
		Connects:     c.connects.Load(),
		Connected:    c.IsConnected(),
		Revision:     c.Revision(),
	}
}
