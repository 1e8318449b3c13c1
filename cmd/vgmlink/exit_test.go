package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "done no message",
			err:      cli.Exit("", 0),
			wantCode: 0,
			wantMsg:  "",
		},
		{
			name:     "format error with message",
			err:      cli.Exit("bad.vgm: not a VGM file", 1),
			wantCode: 1,
			wantMsg:  "bad.vgm: not a VGM file",
		},
		{
			name:     "transport error",
			err:      cli.Exit("serial open failed", 2),
			wantCode: 2,
			wantMsg:  "serial open failed",
		},
		{
			name:     "protocol error",
			err:      cli.Exit("no handshake reply", 3),
			wantCode: 3,
			wantMsg:  "no handshake reply",
		},
		{
			name:     "interrupted no message",
			err:      cli.Exit("", 130),
			wantCode: 130,
			wantMsg:  "",
		},
		{
			name:     "wrapped exit coder",
			err:      errors.Join(errors.New("context"), cli.Exit("inner error", 42)),
			wantCode: 42,
			wantMsg:  "inner error",
		},
		{
			name:     "regular error",
			err:      errors.New("regular error"),
			wantCode: 1,
			wantMsg:  "Error: regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitStatus(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	want := []string{"stream", "compile", "inspect", "boards", "ports", "history", "version"}
	for _, name := range want {
		if app.Command(name) == nil {
			t.Errorf("command %q not registered", name)
		}
	}
	if len(app.Commands) != len(want) {
		t.Errorf("len(Commands) = %d, want %d", len(app.Commands), len(want))
	}
}
