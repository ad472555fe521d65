// Package indi implements the INDI control-plane client for Aurora Core.
//
// This package maintains a live mirror of the property vectors published by
// an INDI server (indiserver, default port 7624) and issues property-change
// commands against them. It is the foundation every device workflow in
// Aurora is built on.
//
// # Architecture
//
// The client is organised as a pipeline:
//
//	┌───────────┐   XML    ┌─────────┐  Message  ┌──────────┐
//	│ indiserver│─────────►│  Codec  │──────────►│ Reducer  │──► device tree
//	└───────────┘          └─────────┘           └──────────┘       │
//	      ▲                                                         ▼
//	      │ new<Kind>Vector                                   wait listeners
//	      └──────────────── command queue ◄─────────── Sequencer ops
//
// Incoming definition/update/deletion elements mutate the device tree and
// bump a global revision counter. Waiters registered through Wait are
// re-evaluated after every mutation; the Sequencer operations (SetParam,
// Activate, PulseParam, WaitVectors) compose such waits into the multi-step
// INDI command protocols.
//
// # Key Responsibilities
//
//   - Decode the never-terminated INDI XML stream incrementally
//   - Reduce def/set/del messages into the authoritative device tree
//   - Expose cheap name-resolved Device and Vector handles
//   - Provide the cancellable condition-wait primitive
//   - Sequence multi-step commands with busy/retry semantics
//   - Reconnect with a fixed backoff and surface disconnection to waiters
//   - Retain broadcast notes in a capped, uid-ordered log
//
// # Concurrency
//
// All tree mutations are applied by the connection's read loop, one message
// at a time. Handles and waiters read the tree through a shared mutex, so
// predicates always observe a consistent snapshot. Listener fan-out operates
// on a frozen copy of the listener set, making in-pass registration and
// removal safe.
//
// # References
//
//   - INDI protocol: https://www.indilib.org/develop/developer-manual/104-indi-protocol.html
package indi
