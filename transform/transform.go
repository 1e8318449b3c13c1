// Package transform rewrites command streams for a target device.
//
// Every Pass returns a new stream and leaves its input untouched. Passes
// rebuild through command.Builder, so the loop marker keeps its place and
// LoopIndex stays valid after commands are dropped or merged.
package transform

import (
	"fmt"

	"github.com/justapithecus/vgmlink/command"
)

// Pass is one stream rewrite.
type Pass interface {
	Name() string
	Apply(s *command.Stream) *command.Stream
}

// Step reports what one pass did.
type Step struct {
	Pass   string `json:"pass" yaml:"pass"`
	Before int    `json:"before" yaml:"before"`
	After  int    `json:"after" yaml:"after"`
}

// Pipeline runs passes in order.
type Pipeline struct {
	passes []Pass
}

// NewPipeline returns a pipeline of passes. Nil passes are skipped.
func NewPipeline(passes ...Pass) *Pipeline {
	p := &Pipeline{}
	for _, pass := range passes {
		if pass != nil {
			p.passes = append(p.passes, pass)
		}
	}
	return p
}

// Passes returns the pass names in run order.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name()
	}
	return names
}

// Run applies every pass and checks the loop invariant after each one.
func (p *Pipeline) Run(s *command.Stream) (*command.Stream, []Step, error) {
	steps := make([]Step, 0, len(p.passes))
	for _, pass := range p.passes {
		before := s.Len()
		s = pass.Apply(s)
		if err := s.Validate(); err != nil {
			return nil, steps, fmt.Errorf("pass %s: %w", pass.Name(), err)
		}
		steps = append(steps, Step{Pass: pass.Name(), Before: before, After: s.Len()})
	}
	return s, steps, nil
}

// Options selects the passes for one compile.
type Options struct {
	// Reduction is the audio mode.
	Reduction Reduction
	// Balance enables PSG attenuation when FM is also present.
	Balance bool
	// BalanceStep is the attenuation increase. Zero means DefaultBalanceStep.
	BalanceStep uint8
	// KeepForeign keeps writes for chips the device does not host.
	KeepForeign bool
}

// Build returns the pipeline for opts in the fixed pass order.
func Build(opts Options) *Pipeline {
	var passes []Pass
	if !opts.KeepForeign {
		passes = append(passes, DropForeign{})
	}
	if opts.Balance {
		step := opts.BalanceStep
		if step == 0 {
			step = DefaultBalanceStep
		}
		passes = append(passes, BalanceChips{Step: step})
	}
	passes = append(passes, opts.Reduction.Pass(), ConsolidateWaits{})
	return NewPipeline(passes...)
}
