// Aurora Core - Observatory Device Gateway
//
// This is the main entry point for the Aurora Core application.
// Aurora Core bridges an INDI device server onto MQTT so observatory
// tooling can monitor and command astronomical equipment through one
// structured bus:
//   - Mirrors the server's property-vector tree and publishes it retained
//   - Executes commands (connect, set, activate) with completion tracking
//   - Journals driver notifications and records state history
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
