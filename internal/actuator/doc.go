// Package actuator describes the playback service the engine drives and the
// helpers built on top of it: best-effort device wake and classification of
// actuator failures into user-facing causes.
//
// Implementations must be safe for concurrent use; the engine calls a single
// shared actuator from several workers.
package actuator
