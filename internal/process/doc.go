// Package process provides generic subprocess lifecycle management.
//
// It supervises long-running child processes such as a local indiserver
// instance that Aurora Core launches alongside itself.
//
// Features:
//   - Start/stop with graceful shutdown (SIGTERM, then SIGKILL)
//   - Automatic restart on failure with exponential backoff
//   - Log capture from subprocess stdout/stderr
//   - Context-based cancellation for clean shutdown
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:             "indiserver",
//	    Binary:           "/usr/bin/indiserver",
//	    Args:             []string{"-p", "7624", "indi_simulator_telescope"},
//	    RestartOnFailure: true,
//	    RestartDelay:     5 * time.Second,
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop()
package process
