package indiserver

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aurora-obs/aurora-core/internal/process"
)

// Readiness probe timing after a start.
const (
	readyTimeout      = 30 * time.Second
	readyPollInterval = 100 * time.Millisecond
	dialTimeout       = 500 * time.Millisecond
)

// Logger is the logging interface this package needs.
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

// Manager owns one local indiserver process.
type Manager struct {
	config  Config
	process *process.Manager
	logger  Logger
}

// NewManager creates a manager for the configured indiserver. Defaults are
// applied before validation; the server is not started until Start.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Binary == "" {
		cfg.Binary = "/usr/bin/indiserver"
	}
	if cfg.Port == 0 {
		cfg.Port = 7624
	}
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 5 * time.Second
	}
	if cfg.MaxRestartAttempts == 0 {
		cfg.MaxRestartAttempts = 10
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{config: cfg, logger: noopLogger{}}
	m.process = process.NewManager(process.Config{
		Name:               "indiserver",
		Binary:             cfg.Binary,
		Args:               cfg.buildArgs(),
		RestartOnFailure:   true,
		RestartDelay:       cfg.RestartDelay,
		MaxRestartAttempts: cfg.MaxRestartAttempts,
		GracefulTimeout:    cfg.GracefulTimeout,
		OnRestart: func(attempt int) {
			m.logger.Warn("indiserver restarting", "attempt", attempt)
		},
	})
	return m, nil
}

// SetLogger sets the logger for the manager and the underlying supervisor.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
	m.process.SetLogger(logger)
}

// Start launches indiserver and waits until it accepts TCP connections.
// A server that starts but never opens its port is stopped again and
// reported as ErrNotReady.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.process.Start(ctx); err != nil {
		return err
	}

	if err := m.waitReady(ctx); err != nil {
		m.process.Stop()
		return err
	}

	m.logger.Info("indiserver ready",
		"port", m.config.Port, "drivers", m.config.Drivers, "pid", m.process.PID())
	return nil
}

// waitReady polls the server port until it accepts a connection or the
// readiness window closes.
func (m *Manager) waitReady(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(m.config.Port))
	deadline := time.Now().Add(readyTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			conn.Close()
			return nil
		}
		if !m.process.IsRunning() {
			return fmt.Errorf("%w: process exited during startup: %w",
				ErrNotReady, m.process.LastError())
		}
		time.Sleep(readyPollInterval)
	}
	return fmt.Errorf("%w: port %d not accepting connections after %s",
		ErrNotReady, m.config.Port, readyTimeout)
}

// Stop terminates the managed server.
func (m *Manager) Stop() error {
	return m.process.Stop()
}

// IsRunning reports whether the managed server process is alive.
func (m *Manager) IsRunning() bool {
	return m.process.IsRunning()
}

// Stats returns supervisor statistics for the managed server.
func (m *Manager) Stats() process.Stats {
	return m.process.Stats()
}
