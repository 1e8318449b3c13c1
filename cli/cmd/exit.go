package cmd

import (
	"github.com/justapithecus/vgmlink/session"
	"github.com/justapithecus/vgmlink/types"
)

// Exit codes for stream.
const (
	exitSuccess     = 0
	exitFormatError = 1
	exitTransport   = 2
	exitProtocol    = 3
	exitInterrupted = 130
)

// exitCodeFor maps a session outcome and its error to an exit code.
// Format errors and unclassified failures exit 1.
func exitCodeFor(outcome types.Outcome, err error) int {
	switch {
	case outcome == types.OutcomeInterrupted:
		return exitInterrupted
	case err == nil && outcome == types.OutcomeDone:
		return exitSuccess
	case session.IsProtocolError(err):
		return exitProtocol
	case session.IsTransportError(err):
		return exitTransport
	default:
		return exitFormatError
	}
}
