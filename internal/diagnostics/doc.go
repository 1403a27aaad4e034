// Package diagnostics records per-body telemetry without blocking the
// simulation.
//
// A [Sink] accepts one text line per call. [FileSink] decouples producers
// from the file with an unbounded in-memory queue drained by a single writer
// goroutine, so lines reach the file in submission order and Log never waits
// on I/O. Lines logged after Close are dropped.
//
// Each line is a [Record] in CSV form:
//
//	2026-10-16T12:00:00.000000001Z,3,120.500000,88.000000,1.250000,-0.750000
//	time,id,x,y,vx,vy
package diagnostics
