// Package iox holds cleanup helpers for closers whose errors nobody can
// act on: HTTP bodies, archive clients, a session at command exit.
package iox

import "io"

// DiscardClose closes c and drops the error.
//
//	defer iox.DiscardClose(sess)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup.
//
//	t.Cleanup(iox.CloseFunc(adapter))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and drops the error, for Sync and Flush style calls.
//
//	defer iox.DiscardErr(logger.Sync)
func DiscardErr(fn func() error) { _ = fn() }
