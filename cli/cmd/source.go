package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/cli/config"
	"github.com/justapithecus/vgmlink/session"
	"github.com/justapithecus/vgmlink/transform"
	"github.com/justapithecus/vgmlink/types"
	"github.com/justapithecus/vgmlink/vgm"
)

// reductionBoard selects the negotiated board's default reduction.
const reductionBoard = "board"

// source is a loaded input: either a VGM container to compile or a
// precompiled artifact.
type source struct {
	path     string
	vgm      *vgm.File
	artifact *artifact.File
}

// loadSource reads path and detects its kind from the content.
func loadSource(path string) (*source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src := &source{path: path}
	if artifact.Is(raw) {
		src.artifact, err = artifact.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return src, nil
	}
	src.vgm, err = vgm.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

func (s *source) name() string {
	return filepath.Base(s.path)
}

// tags returns the GD3 tags of the input, if any.
func (s *source) tags() *vgm.Tags {
	if s.artifact != nil {
		return s.artifact.Tags
	}
	return s.vgm.Tags
}

func (s *source) title() string {
	if t := s.tags(); t != nil {
		return t.TrackEN
	}
	return ""
}

func (s *source) game() string {
	if t := s.tags(); t != nil {
		return t.GameEN
	}
	return ""
}

// pipelineChoice holds the resolved transform flags.
type pipelineChoice struct {
	target      string
	reduction   string
	balance     bool
	balanceStep int
	keepForeign bool
}

func parsePipelineChoice(c *cli.Context, cfg *config.Config) pipelineChoice {
	balance := true
	if b := configVal(cfg, func(c *config.Config) *bool { return c.Balance }); b != nil {
		balance = *b
	}
	if c.IsSet("no-balance") {
		balance = !c.Bool("no-balance")
	}
	return pipelineChoice{
		target:      resolveString(c, "target", configVal(cfg, func(c *config.Config) string { return c.Target })),
		reduction:   resolveString(c, "reduction", configVal(cfg, func(c *config.Config) string { return c.Reduction })),
		balance:     balance,
		balanceStep: resolveInt(c, "balance-step", configVal(cfg, func(c *config.Config) int { return c.BalanceStep })),
		keepForeign: resolveBool(c, "keep-foreign", configVal(cfg, func(c *config.Config) bool { return c.KeepForeign })),
	}
}

// needsBoard reports whether the reduction depends on a negotiated board.
func (p pipelineChoice) needsBoard() bool {
	return p.reduction == "" || strings.EqualFold(p.reduction, reductionBoard)
}

// options builds compile options. The reduction "board" resolves against
// negotiated when set, then the target board, then full audio. The
// flash limit applies only when a target is named.
func (p pipelineChoice) options(table board.Table, name string, negotiated *board.Profile) (artifact.Options, error) {
	if p.balanceStep < 0 || p.balanceStep > 15 {
		return artifact.Options{}, fmt.Errorf("invalid --balance-step %d (must be 0-15)", p.balanceStep)
	}
	opts := artifact.Options{
		Source: name,
		Transform: transform.Options{
			Balance:     p.balance,
			BalanceStep: uint8(p.balanceStep),
			KeepForeign: p.keepForeign,
		},
	}

	var target *board.Profile
	if p.target != "" {
		t, err := table.ByName(p.target)
		if err != nil {
			return artifact.Options{}, fmt.Errorf("invalid --target: %w", err)
		}
		target = &t
		opts.Target = t.Name
		opts.Limit = t.FlashLimit
	}

	if p.needsBoard() {
		switch {
		case negotiated != nil:
			opts.Transform.Reduction = negotiated.DefaultReduction()
		case target != nil:
			opts.Transform.Reduction = target.DefaultReduction()
		default:
			opts.Transform.Reduction = transform.Full()
		}
		return opts, nil
	}

	r, err := transform.ParseReduction(p.reduction)
	if err != nil {
		return artifact.Options{}, err
	}
	opts.Transform.Reduction = r
	return opts, nil
}

// parseLoop accepts "none", "infinite" or a total play count N >= 1.
func parseLoop(s string) (session.Loop, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none", "once", "1":
		return session.Loop{Mode: types.LoopNone}, nil
	case "infinite", "forever", "inf":
		return session.Loop{Mode: types.LoopInfinite}, nil
	default:
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return session.Loop{}, fmt.Errorf("invalid --loop %q (must be none, infinite, or a play count N >= 1)", s)
		}
		return session.Loop{Mode: types.LoopCount, Count: n}, nil
	}
}

// loopString renders l in parseLoop form.
func loopString(l session.Loop) string {
	switch l.Mode {
	case types.LoopInfinite:
		return "infinite"
	case types.LoopCount:
		return strconv.Itoa(l.Passes())
	default:
		return "none"
	}
}
