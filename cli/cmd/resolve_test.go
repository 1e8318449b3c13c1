package cmd

import (
	"flag"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/config"
)

func TestResolveString_CLIWins(t *testing.T) {
	c := newTestCLIContext(t, map[string]string{"port": "/dev/ttyUSB0"}, nil)
	got := resolveString(c, "port", "/dev/ttyACM0")
	if got != "/dev/ttyUSB0" {
		t.Errorf("expected CLI to win, got %q", got)
	}
}

func TestResolveString_ConfigFallback(t *testing.T) {
	c := newTestCLIContext(t, nil, map[string]string{"port": ""})
	got := resolveString(c, "port", "/dev/ttyACM0")
	if got != "/dev/ttyACM0" {
		t.Errorf("expected config fallback, got %q", got)
	}
}

func TestResolveString_UrfaveDefault(t *testing.T) {
	c := newTestCLIContext(t, nil, map[string]string{"loop": "none"})
	got := resolveString(c, "loop", "")
	if got != "none" {
		t.Errorf("expected urfave default, got %q", got)
	}
}

func TestConfigVal_NilConfig(t *testing.T) {
	got := configVal(nil, func(c *config.Config) string { return c.Port })
	if got != "" {
		t.Errorf("expected empty for nil config, got %q", got)
	}
}

func TestConfigVal_NonNil(t *testing.T) {
	cfg := &config.Config{Port: "/dev/ttyACM0"}
	got := configVal(cfg, func(c *config.Config) string { return c.Port })
	if got != "/dev/ttyACM0" {
		t.Errorf("expected /dev/ttyACM0, got %q", got)
	}
}

func intContext(set string) *cli.Context {
	app := cli.NewApp()
	app.Flags = []cli.Flag{&cli.IntFlag{Name: "baud", Value: 1000000}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("baud", 1000000, "")
	if set != "" {
		_ = fs.Set("baud", set)
	}
	return cli.NewContext(app, fs, nil)
}

func TestResolveInt(t *testing.T) {
	tests := []struct {
		name   string
		set    string
		cfgVal int
		want   int
	}{
		{"CLI wins", "115200", 57600, 115200},
		{"config fallback", "", 57600, 57600},
		{"flag default", "", 0, 1000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveInt(intContext(tt.set), "baud", tt.cfgVal)
			if got != tt.want {
				t.Errorf("resolveInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveBool_CLIWins(t *testing.T) {
	app := cli.NewApp()
	app.Flags = []cli.Flag{&cli.BoolFlag{Name: "keep-foreign"}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("keep-foreign", false, "")
	_ = fs.Set("keep-foreign", "false")
	c := cli.NewContext(app, fs, nil)

	if resolveBool(c, "keep-foreign", true) {
		t.Error("expected explicit CLI false to win over config true")
	}
}

func TestResolveBool_ConfigFallback(t *testing.T) {
	app := cli.NewApp()
	app.Flags = []cli.Flag{&cli.BoolFlag{Name: "keep-foreign"}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("keep-foreign", false, "")
	c := cli.NewContext(app, fs, nil)

	if !resolveBool(c, "keep-foreign", true) {
		t.Error("expected config true to apply")
	}
}

func TestResolveDuration_CLIWins(t *testing.T) {
	app := cli.NewApp()
	app.Flags = []cli.Flag{&cli.DurationFlag{Name: "adapter-timeout"}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Duration("adapter-timeout", 0, "")
	_ = fs.Set("adapter-timeout", "30s")
	c := cli.NewContext(app, fs, nil)

	got := resolveDuration(c, "adapter-timeout", 10*time.Second)
	if got != 30*time.Second {
		t.Errorf("expected CLI 30s to win, got %v", got)
	}
}

func TestResolveDuration_ConfigFallback(t *testing.T) {
	app := cli.NewApp()
	app.Flags = []cli.Flag{&cli.DurationFlag{Name: "adapter-timeout"}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Duration("adapter-timeout", 0, "")
	c := cli.NewContext(app, fs, nil)

	got := resolveDuration(c, "adapter-timeout", 10*time.Second)
	if got != 10*time.Second {
		t.Errorf("expected config fallback 10s, got %v", got)
	}
}
