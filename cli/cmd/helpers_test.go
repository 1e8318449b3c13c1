package cmd

import (
	"encoding/binary"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

// newTestCLIContext builds a minimal *cli.Context with the given flags set.
// flagValues maps flag names to their string values. All listed flags are
// registered and marked as explicitly set (c.IsSet returns true).
// defaultFlags maps flag names to default values (not explicitly set).
func newTestCLIContext(t *testing.T, flagValues map[string]string, defaultFlags map[string]string) *cli.Context {
	t.Helper()
	app := cli.NewApp()

	allFlags := make(map[string]string)
	for k, v := range defaultFlags {
		allFlags[k] = v
	}
	for k, v := range flagValues {
		allFlags[k] = v
	}

	var cliFlags []cli.Flag
	for name, val := range allFlags {
		cliFlags = append(cliFlags, &cli.StringFlag{Name: name, Value: val})
	}
	app.Flags = cliFlags

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, val := range allFlags {
		fs.String(name, val, "")
	}
	for name, val := range flagValues {
		if err := fs.Set(name, val); err != nil {
			t.Fatalf("failed to set flag %s: %v", name, err)
		}
	}

	return cli.NewContext(app, fs, nil)
}

// newTestApp creates a cli.App with every command wired up and
// ExitErrHandler suppressed so errors are returned instead of calling
// os.Exit.
func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Flags = GlobalFlags()
	app.Commands = []*cli.Command{
		StreamCommand(),
		CompileCommand(),
		InspectCommand(),
		BoardsCommand(),
		HistoryCommand(),
		VersionCommand("test"),
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {}
	return app
}

// exitCode returns the code carried by err, 0 for nil and -1 for errors
// that do not carry one.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

// vgmBody is a short PSG tune: two tone writes, two waits, end.
var vgmBody = []byte{0x50, 0x9F, 0x62, 0x50, 0xBF, 0x63, 0x66}

// buildVGM returns a version 1.50 SN76489 file holding body. loopAt is
// a body offset, or -1 for no loop.
func buildVGM(body []byte, loopAt int) []byte {
	data := make([]byte, 0x40, 0x40+len(body))
	copy(data, "Vgm ")
	data = append(data, body...)
	binary.LittleEndian.PutUint32(data[0x04:], uint32(len(data)-0x04))
	binary.LittleEndian.PutUint32(data[0x08:], 0x150)
	binary.LittleEndian.PutUint32(data[0x0C:], 3579545)
	binary.LittleEndian.PutUint32(data[0x34:], 0x40-0x34)
	if loopAt >= 0 {
		binary.LittleEndian.PutUint32(data[0x1C:], uint32(0x40+loopAt-0x1C))
	}
	return data
}

// writeFile writes data under dir and returns the path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
