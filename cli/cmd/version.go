package cmd

import (
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/cli/render"
	"github.com/justapithecus/vgmlink/types"
)

// VersionResponse describes this build.
type VersionResponse struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	// Artifact is the compiled stream format this build reads and writes.
	Artifact int    `json:"artifact_format" yaml:"artifact_format"`
	Go       string `json:"go" yaml:"go"`
	// Boards lists the shipped board profiles, before config overrides.
	Boards []string `json:"boards" yaml:"boards"`
}

func versionInfo(commit string) VersionResponse {
	return VersionResponse{
		Version:  types.Version,
		Commit:   commit,
		Artifact: artifact.FormatVersion,
		Go:       runtime.Version(),
		Boards:   board.DefaultTable().Names(),
	}
}

// VersionCommand returns the version command. It never opens a port.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: ReadOnlyFlags(),
		Action: func(c *cli.Context) error {
			if c.Bool("tui") {
				return cli.Exit("--tui is not supported for version command", 1)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			return r.Render(versionInfo(commit))
		},
	}
}
