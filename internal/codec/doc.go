// Package codec converts alarm domain types to and from protobuf well-known
// types. The gRPC service and the state file both speak these shapes, so a
// definition written by the daemon reads back identically in the CLI.
package codec
