package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/render"
	"github.com/justapithecus/vgmlink/link"
)

// BoardsCommand returns the boards command.
// Lists the shipped profiles merged with configured boards.
func BoardsCommand() *cli.Command {
	return &cli.Command{
		Name:   "boards",
		Usage:  "List known board profiles",
		Flags:  ReadOnlyFlags(),
		Action: boardsAction,
	}
}

func boardsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for boards command", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	table, err := cfg.Table()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid boards config: %v", err), 1)
	}
	return r.Render(table.Profiles())
}

// PortDetection is the response of ports --detect.
type PortDetection struct {
	Port string `json:"port" yaml:"port"`
}

// PortsCommand returns the ports command.
func PortsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ports",
		Usage: "List serial ports",
		Flags: append(ReadOnlyFlags(),
			&cli.BoolFlag{
				Name:  "detect",
				Usage: "Print only the port stream would pick",
			},
		),
		Action: portsAction,
	}
}

func portsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for ports command", 1)
	}

	if c.Bool("detect") {
		name, err := link.Detect()
		if errors.Is(err, link.ErrNoPort) {
			return cli.Exit(err.Error(), exitTransport)
		}
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return r.Render(PortDetection{Port: name})
	}

	ports, err := link.List()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return r.Render(ports)
}
