// Package device is the orchestration layer over the INDI client.
//
// It exposes the small command API external callers use (connect and
// disconnect devices, update vectors), keeps the externally-visible state
// projection current for a state-synchronisation collaborator, and bridges
// inbound MQTT commands onto the same API.
//
// # Architecture
//
//	┌──────────────┐  commands   ┌────────────┐  sequenced ops  ┌──────────┐
//	│ MQTT bridge  │────────────►│ Controller │────────────────►│ indi pkg │
//	└──────────────┘             └────────────┘                 └──────────┘
//	                                    ▲ tree listener               │
//	┌──────────────┐   SyncVector…      │                             │
//	│ Synchronizer │◄──────────── ┌──────────┐ ◄────────────── device tree
//	└──────────────┘              │  Syncer  │
//	                              └──────────┘
//
// The Controller depends on the Sequencer interface rather than the
// concrete client so business flows can be tested against a fake. The
// Syncer coalesces tree mutations and calls the provided Synchronizer once
// per logical change, never once per wire message.
package device
