// Package ktime implements Kronos's time and identifier primitives.
//
// A KronosTime is a 64-bit signed count of 100ns intervals since the Unix
// epoch (UTC). An EventId is a 128-bit, UUIDv1-shaped identifier whose time
// fields encode a KronosTime and whose total order — established by
// Compare, not by raw byte comparison — matches time order. That property
// is what lets a single stream be sharded and bucketed while still reading
// back in one globally sorted sequence: see internal/cassandra.
package ktime
