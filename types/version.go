// Package types defines the domain types shared across vgmlink packages.
//
//nolint:revive // types is a common Go package naming convention
package types

// Version is the canonical project version.
// It is also the producer version stamped into compiled artifacts.
const Version = "0.3.0"
