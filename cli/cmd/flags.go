// Package cmd provides CLI commands for the vgmlink binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Valid for stream, inspect and history --summary.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode",
	}
)

// Global flags registered on the app.
var (
	// ConfigFlag points at a vgmlink.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to vgmlink.yaml (default: ./vgmlink.yaml when present)",
		EnvVars: []string{"VGMLINK_CONFIG"},
	}

	// LogLevelFlag sets the structured log level.
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: debug, info, warn, error",
		EnvVars: []string{"VGMLINK_LOG_LEVEL"},
	}
)

// GlobalFlags returns the app-level flags.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{ConfigFlag, LogLevelFlag}
}

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// pipelineFlags shape the compiled stream. Shared by stream, compile and
// inspect.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "target",
			Usage: "Board to size the stream for (truncates to its flash limit)",
		},
		&cli.StringFlag{
			Name:  "reduction",
			Usage: "Audio reduction: board, full, strip or rate-N",
			Value: "board",
		},
		&cli.BoolFlag{
			Name:  "no-balance",
			Usage: "Disable PSG attenuation when FM is present",
		},
		&cli.IntFlag{
			Name:  "balance-step",
			Usage: "PSG attenuation steps added by the balance pass",
		},
		&cli.BoolFlag{
			Name:  "keep-foreign",
			Usage: "Keep writes for chips the device does not host",
		},
	}
}

// storageFlags select the session archive.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Session archive backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Archive location (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-dataset",
			Usage: "Archive dataset name",
			Value: "vgmlink",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}
