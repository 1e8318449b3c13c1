// Package main provides the vgmlink CLI entrypoint.
//
// Usage:
//
//	vgmlink <command> [options]
//
// Exit codes for `stream`:
//   - 0: done
//   - 1: format or usage error
//   - 2: serial transport error
//   - 3: handshake protocol error
//   - 130: interrupted
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/cmd"
	"github.com/justapithecus/vgmlink/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "vgmlink",
		Usage:          "Stream VGM chiptunes to sound-chip boards over serial",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:          cmd.GlobalFlags(),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.StreamCommand(),
			cmd.CompileCommand(),
			cmd.InspectCommand(),
			cmd.BoardsCommand(),
			cmd.PortsCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler prints the error message, if any, and exits with the
// code carried by cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus extracts the exit code and printable message of err.
// cli.Exit("", N) carries no message; unexpected errors exit 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
