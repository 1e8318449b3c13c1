package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/cli/render"
	"github.com/justapithecus/vgmlink/cli/tui"
	"github.com/justapithecus/vgmlink/vgm"
)

// ArtifactInfo describes a compiled artifact.
type ArtifactInfo struct {
	Source        string    `json:"source" yaml:"source"`
	Producer      string    `json:"producer" yaml:"producer"`
	FormatVersion int       `json:"format_version" yaml:"format_version"`
	Target        string    `json:"target,omitempty" yaml:"target,omitempty"`
	Reduction     string    `json:"reduction" yaml:"reduction"`
	Balanced      bool      `json:"balanced" yaml:"balanced"`
	VGMVersion    string    `json:"vgm_version" yaml:"vgm_version"`
	Chips         []string  `json:"chips" yaml:"chips"`
	Commands      int       `json:"commands" yaml:"commands"`
	EncodedLen    int       `json:"encoded_len" yaml:"encoded_len"`
	Samples       uint64    `json:"samples" yaml:"samples"`
	LoopOffset    int       `json:"loop_offset" yaml:"loop_offset"`
	Truncated     bool      `json:"truncated" yaml:"truncated"`
	Tags          *vgm.Tags `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// InspectCommand returns the inspect command.
// VGM input is compiled in memory with the pipeline flags and reported;
// artifacts are described as stored.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show header, tags, decode and pipeline stats of a file",
		ArgsUsage: "FILE",
		Flags:     append(ReadOnlyFlags(), pipelineFlags()...),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return cli.Exit("inspect requires exactly one FILE argument", 1)
	}

	src, err := loadSource(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if src.artifact != nil {
		if c.Bool("tui") {
			return cli.Exit("--tui is only supported for VGM input", 1)
		}
		return r.Render(describeArtifact(src.artifact))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	table, err := cfg.Table()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid boards config: %v", err), 1)
	}
	opts, err := parsePipelineChoice(c, cfg).options(table, src.name(), nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	_, report, err := artifact.Compile(src.vgm, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("inspect %s: %v", src.path, err), 1)
	}

	if c.Bool("tui") {
		return tui.Run(tui.ViewInspect, report)
	}
	return r.Render(report)
}

func describeArtifact(f *artifact.File) ArtifactInfo {
	return ArtifactInfo{
		Source:        f.Source,
		Producer:      f.Producer,
		FormatVersion: f.FormatVersion,
		Target:        f.Target,
		Reduction:     f.Reduction,
		Balanced:      f.Balanced,
		VGMVersion:    f.VGMVersion,
		Chips:         f.Chips,
		Commands:      f.CommandCount,
		EncodedLen:    len(f.Data),
		Samples:       f.Samples,
		LoopOffset:    f.LoopOffset,
		Truncated:     f.Truncated,
		Tags:          f.Tags,
	}
}
