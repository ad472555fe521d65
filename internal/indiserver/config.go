package indiserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config describes a locally managed indiserver instance.
type Config struct {
	// Binary is the path to the indiserver executable.
	// Default: /usr/bin/indiserver.
	Binary string

	// Port is the TCP port indiserver listens on. Default: 7624.
	Port int

	// Drivers are the INDI driver executables to launch, e.g.
	// "indi_simulator_telescope". At least one is required.
	Drivers []string

	// Verbosity is the indiserver -v level (0-3).
	Verbosity int

	// FIFOPath, when set, is passed as indiserver's -f control FIFO so
	// drivers can be started and stopped at runtime.
	FIFOPath string

	// MaxClients caps simultaneous client connections (-m). 0 leaves
	// indiserver's own default.
	MaxClients int

	// RestartDelay is the base delay before restarting a crashed server.
	RestartDelay time.Duration

	// MaxRestartAttempts limits consecutive restarts. 0 means unlimited.
	MaxRestartAttempts int

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration
}

// Validate checks the configuration for values indiserver would reject.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if len(c.Drivers) == 0 {
		return fmt.Errorf("%w: at least one driver is required", ErrInvalidConfig)
	}
	for _, d := range c.Drivers {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("%w: empty driver name", ErrInvalidConfig)
		}
		if strings.ContainsAny(d, " \t\n") {
			return fmt.Errorf("%w: driver name %q contains whitespace", ErrInvalidConfig, d)
		}
	}
	if c.Verbosity < 0 || c.Verbosity > 3 {
		return fmt.Errorf("%w: verbosity %d out of range 0-3", ErrInvalidConfig, c.Verbosity)
	}
	if c.MaxClients < 0 {
		return fmt.Errorf("%w: max clients must not be negative", ErrInvalidConfig)
	}
	return nil
}

// buildArgs assembles the indiserver argument list. Drivers come last, after
// all flags, as indiserver requires.
func (c *Config) buildArgs() []string {
	args := []string{"-p", strconv.Itoa(c.Port)}
	if c.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", c.Verbosity))
	}
	if c.MaxClients > 0 {
		args = append(args, "-m", strconv.Itoa(c.MaxClients))
	}
	if c.FIFOPath != "" {
		args = append(args, "-f", c.FIFOPath)
	}
	return append(args, c.Drivers...)
}
