// Package alarm implements the gRPC transport for the alarm engine.
//
// The service is declared by hand over protobuf well-known types (Struct,
// ListValue, wrappers and Empty), so neither side needs generated stubs. The
// server adapts domain types through the codec package and calls into a
// provided business-service interface.
package alarm
