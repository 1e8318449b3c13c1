package transform

import "github.com/justapithecus/vgmlink/command"

// DropForeign removes Raw writes for chips the device does not host.
// Some of them share opcode values with device-only encodings (0xC0 is
// the run-length wait on the wire), so they cannot be sent as-is.
type DropForeign struct{}

func (DropForeign) Name() string { return "drop_foreign" }

func (DropForeign) Apply(s *command.Stream) *command.Stream {
	if s.Count(command.KindRaw) == 0 {
		return s
	}
	b := command.NewBuilder(s.Len())
	for _, c := range s.Commands {
		if c.Kind() != command.KindRaw {
			b.Add(c)
		}
	}
	return b.Stream()
}
