package config

import (
	"strings"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("VGMLINK_PORT", "/dev/ttyUSB1")
	t.Setenv("VGMLINK_EMPTY", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "port: ${VGMLINK_PORT}", "port: /dev/ttyUSB1"},
		{"unset var", "port: ${VGMLINK_UNSET_12345}", "port: "},
		{"default when unset", "target: ${VGMLINK_UNSET_12345:-uno}", "target: uno"},
		{"default ignored when set", "port: ${VGMLINK_PORT:-COM1}", "port: /dev/ttyUSB1"},
		{"default when empty", "port: ${VGMLINK_EMPTY:-COM1}", "port: COM1"},
		{"multiple vars", "url: redis://${REDIS_HOST}:6379/${REDIS_DB}", "url: redis://cache:6379/2"},
		{"no vars", "no variables here", "no variables here"},
		{"bare dollar kept", "cost: $5", "cost: $5"},
		{"required and set", "port: ${VGMLINK_PORT:?set a port}", "port: /dev/ttyUSB1"},
		{
			"nested in yaml",
			"adapter:\n  headers:\n    Authorization: Bearer ${VGMLINK_UNSET_TOKEN:-dev}",
			"adapter:\n  headers:\n    Authorization: Bearer dev",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnv(tt.input)
			if err != nil {
				t.Fatalf("ExpandEnv(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_Required(t *testing.T) {
	t.Setenv("VGMLINK_EMPTY", "")

	_, err := ExpandEnv("url: ${VGMLINK_UNSET_HOOK:?webhook url}\ntoken: ${VGMLINK_EMPTY:?}")
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	for _, want := range []string{"VGMLINK_UNSET_HOOK: webhook url", "VGMLINK_EMPTY: required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err, want)
		}
	}
}
