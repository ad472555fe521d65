// Package journal persists driver notifications to SQLite.
//
// The in-memory notification buffer inside the protocol client is capped
// and lost on restart. The journal gives notes a durable home so operators
// can review what drivers reported across sessions, including messages
// emitted while the operator was away.
//
// # Architecture
//
//	indi.Client ──notes──▶ Journal.Append ──▶ SQLite (notifications table)
//	                                │
//	                                └──▶ Journal.Recent / Journal.Prune
//
// The journal owns its database handle. The schema is created on Open,
// so no external migration step is required.
//
// # Thread Safety
//
// All methods are safe for concurrent use. SQLite is configured with a
// single writer connection and WAL mode for concurrent reads.
package journal
