package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/cli/render"
)

// CompileResponse is the rendered result of compile.
type CompileResponse struct {
	Output     string `json:"output" yaml:"output"`
	Source     string `json:"source" yaml:"source"`
	Target     string `json:"target,omitempty" yaml:"target,omitempty"`
	Reduction  string `json:"reduction" yaml:"reduction"`
	Balanced   bool   `json:"balanced" yaml:"balanced"`
	Commands   int    `json:"commands" yaml:"commands"`
	EncodedLen int    `json:"encoded_len" yaml:"encoded_len"`
	Samples    uint64 `json:"samples" yaml:"samples"`
	Loop       bool   `json:"loop" yaml:"loop"`
	Truncated  bool   `json:"truncated" yaml:"truncated"`
}

// CompileCommand returns the compile command.
func CompileCommand() *cli.Command {
	flags := append(ReadOnlyFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Artifact path (default: FILE with " + artifact.Ext + " extension)",
		},
	)
	flags = append(flags, pipelineFlags()...)
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile a VGM file into a streamable artifact",
		ArgsUsage: "FILE",
		Flags:     flags,
		Action:    compileAction,
	}
}

func compileAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for compile command", 1)
	}
	if c.NArg() != 1 {
		return cli.Exit("compile requires exactly one FILE argument", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	table, err := cfg.Table()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid boards config: %v", err), 1)
	}

	src, err := loadSource(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if src.artifact != nil {
		return cli.Exit(fmt.Sprintf("%s is already a compiled artifact", src.path), 1)
	}

	opts, err := parsePipelineChoice(c, cfg).options(table, src.name(), nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	file, report, err := artifact.Compile(src.vgm, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("compile %s: %v", src.path, err), 1)
	}

	out := c.String("output")
	if out == "" {
		out = defaultArtifactPath(src.path)
	}
	if err := artifact.WriteFile(out, file); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return r.Render(CompileResponse{
		Output:     out,
		Source:     file.Source,
		Target:     file.Target,
		Reduction:  file.Reduction,
		Balanced:   file.Balanced,
		Commands:   file.CommandCount,
		EncodedLen: report.EncodedLen,
		Samples:    file.Samples,
		Loop:       file.HasLoop(),
		Truncated:  file.Truncated,
	})
}

// defaultArtifactPath swaps the input extension for the artifact one.
func defaultArtifactPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + artifact.Ext
}
