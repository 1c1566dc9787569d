// Package view makes one partially materialized index safely readable by
// many concurrent readers while a single writer batches mutations.
//
// The map keeps two generations of state. Readers always see the active
// generation; the writer queues operations and applies them to the standby.
// Publish applies the pending log to the standby, atomically swaps it in,
// waits for readers still on the retired generation to drain, and then
// replays the same log onto the other side. Readers never block and never
// observe a half-applied batch; the writer blocks only on readers that are
// still inside a lookup against the generation being retired.
//
// Row handles are shared between both generations; rows are immutable, so
// only the index structure needs the double-buffering discipline.
package view
