// Package alarms persists alarm definitions.
//
// The FileRepository stores the definitions as protobuf JSON on disk. The
// Watcher reports changes made to that file by other writers, such as a
// backup or sync layer restoring definitions from another machine.
package alarms
