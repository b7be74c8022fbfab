// Package common holds helpers shared by several services.
//
// It provides the panic guard used by background workers and utilities to
// detect the current system actor (hostname/username) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
