// Package config handles vgmlink.yaml loading.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envRef matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// ExpandEnv substitutes environment references in input.
//
// ${VAR} becomes the value or "". ${VAR:-default} falls back when VAR is
// unset or empty. ${VAR:?message} is an error in that case, naming every
// missing variable.
func ExpandEnv(input string) (string, error) {
	var missing []string
	out := envRef.ReplaceAllStringFunc(input, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		switch op {
		case "-":
			return arg
		case "?":
			if arg == "" {
				arg = "required"
			}
			missing = append(missing, name+": "+arg)
		}
		return ""
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables:\n  %s", strings.Join(missing, "\n  "))
	}
	return out, nil
}
