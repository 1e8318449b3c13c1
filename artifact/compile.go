package artifact

import (
	"fmt"

	"github.com/justapithecus/vgmlink/command"
	"github.com/justapithecus/vgmlink/transform"
	"github.com/justapithecus/vgmlink/types"
	"github.com/justapithecus/vgmlink/vgm"
)

// Options configures Compile.
type Options struct {
	// Source is recorded in the artifact, usually the input base name.
	Source    string
	Transform transform.Options
	// Target names the board the stream is sized for. Empty means none.
	Target string
	// Limit caps the encoded size. Zero means unlimited.
	Limit int
}

// Report describes one compile.
type Report struct {
	Source     string           `json:"source" yaml:"source"`
	Tags       *vgm.Tags        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Header     vgm.Header       `json:"header" yaml:"header"`
	Decode     vgm.DecodeStats  `json:"decode" yaml:"decode"`
	Steps      []transform.Step `json:"passes" yaml:"passes"`
	Counts     map[string]int   `json:"counts" yaml:"counts"`
	EncodedLen int              `json:"encoded_len" yaml:"encoded_len"`
	Samples    uint64           `json:"samples" yaml:"samples"`
	LoopOffset int              `json:"loop_offset" yaml:"loop_offset"`
	Truncated  bool             `json:"truncated" yaml:"truncated"`
}

// Compile decodes src, runs the transform pipeline and encodes the result.
func Compile(src *vgm.File, opts Options) (*File, *Report, error) {
	stream, stats, err := vgm.Decode(src)
	if err != nil {
		return nil, nil, err
	}

	out, steps, err := transform.Build(opts.Transform).Run(stream)
	if err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}

	enc := command.Encoder{Limit: opts.Limit}.Encode(out)
	if len(enc.Data) == 0 {
		return nil, nil, fmt.Errorf("compiled stream is empty")
	}

	f := &File{
		FormatVersion: FormatVersion,
		Producer:      "vgmlink " + types.Version,
		Source:        opts.Source,
		Target:        opts.Target,
		Reduction:     opts.Transform.Reduction.String(),
		Balanced:      opts.Transform.Balance,
		Data:          enc.Data,
		LoopOffset:    enc.LoopOffset,
		Samples:       enc.Samples,
		Truncated:     enc.Truncated,
		VGMVersion:    src.Header.VersionString(),
		Chips:         src.Header.Chips(),
		LoopSamples:   src.Header.LoopSamples,
		Tags:          src.Tags,
		CommandCount:  out.Len(),
	}

	report := &Report{
		Source:     opts.Source,
		Tags:       src.Tags,
		Header:     src.Header,
		Decode:     stats,
		Steps:      steps,
		Counts:     countKinds(out),
		EncodedLen: len(enc.Data),
		Samples:    enc.Samples,
		LoopOffset: enc.LoopOffset,
		Truncated:  enc.Truncated,
	}
	return f, report, nil
}

func countKinds(s *command.Stream) map[string]int {
	counts := make(map[string]int)
	for _, c := range s.Commands {
		counts[c.Kind().String()]++
	}
	return counts
}
