package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/vgmlink/artifact"
)

// longBody returns a PSG body of n tone writes followed by End.
func longBody(n int) []byte {
	body := make([]byte, 0, 2*n+1)
	for i := 0; i < n; i++ {
		body = append(body, 0x50, byte(0x80|i&0x0F))
	}
	return append(body, 0x66)
}

func TestCompile_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "song.vgm", buildVGM(vgmBody, -1))

	if err := newTestApp().Run([]string{"vgmlink", "compile", "--format", "json", path}); err != nil {
		t.Fatalf("compile: %v", err)
	}

	f, err := artifact.ReadFile(filepath.Join(dir, "song"+artifact.Ext))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if f.Source != "song.vgm" {
		t.Errorf("Source = %q, want song.vgm", f.Source)
	}
	if f.Reduction != "full" {
		t.Errorf("Reduction = %q, want full without a target", f.Reduction)
	}
	if f.Target != "" || f.Truncated {
		t.Errorf("Target = %q Truncated = %v, want untargeted", f.Target, f.Truncated)
	}
}

func TestCompile_TargetTruncates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "long.vgm", buildVGM(longBody(13000), -1))
	out := filepath.Join(dir, "long-uno.vgl")

	if err := newTestApp().Run([]string{"vgmlink", "compile", "--format", "json", "--target", "uno", "-o", out, path}); err != nil {
		t.Fatalf("compile: %v", err)
	}

	f, err := artifact.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if f.Target != "uno" {
		t.Errorf("Target = %q, want uno", f.Target)
	}
	if !f.Truncated {
		t.Error("stream over the uno flash limit should be truncated")
	}
	if len(f.Data) > 24*1024 {
		t.Errorf("len(Data) = %d, exceeds uno flash limit", len(f.Data))
	}
	if f.Data[len(f.Data)-1] != 0x66 {
		t.Errorf("truncated stream should end with 0x66, got 0x%02X", f.Data[len(f.Data)-1])
	}
	if f.Reduction != "rate-4" {
		t.Errorf("Reduction = %q, want the uno default rate-4", f.Reduction)
	}
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	vgmPath := writeFile(t, dir, "song.vgm", buildVGM(vgmBody, -1))
	out := filepath.Join(dir, "song.vgl")
	if err := newTestApp().Run([]string{"vgmlink", "compile", "--format", "json", "-o", out, vgmPath}); err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", nil, "exactly one FILE"},
		{"artifact input", []string{out}, "already a compiled artifact"},
		{"tui", []string{"--tui", vgmPath}, "not supported for compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestApp().Run(append([]string{"vgmlink", "compile", "--format", "json"}, tt.args...))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %v should contain %q", err, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	vgmPath := writeFile(t, dir, "song.vgm", buildVGM(vgmBody, 3))
	out := filepath.Join(dir, "song.vgl")
	if err := newTestApp().Run([]string{"vgmlink", "compile", "--format", "json", "-o", out, vgmPath}); err != nil {
		t.Fatalf("compile: %v", err)
	}

	for _, path := range []string{vgmPath, out} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			if err := newTestApp().Run([]string{"vgmlink", "inspect", "--format", "table", "--no-color", path}); err != nil {
				t.Errorf("inspect: %v", err)
			}
		})
	}

	err := newTestApp().Run([]string{"vgmlink", "inspect", "--tui", out})
	if err == nil || !strings.Contains(err.Error(), "only supported for VGM input") {
		t.Errorf("expected tui error for artifact, got %v", err)
	}
}

func TestDescribeArtifact(t *testing.T) {
	f := &artifact.File{
		FormatVersion: artifact.FormatVersion,
		Source:        "song.vgm",
		Reduction:     "rate-4",
		Data:          []byte{0x50, 0x9F, 0x66},
		LoopOffset:    -1,
		CommandCount:  2,
	}
	info := describeArtifact(f)
	if info.EncodedLen != 3 || info.Commands != 2 || info.Reduction != "rate-4" {
		t.Errorf("describeArtifact = %+v", info)
	}
}

func TestDefaultArtifactPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"song.vgm", "song.vgl"},
		{"dir/song.vgz", "dir/song.vgl"},
		{"noext", "noext.vgl"},
	}
	for _, tt := range tests {
		if got := defaultArtifactPath(tt.in); got != tt.want {
			t.Errorf("defaultArtifactPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
