// Package config handles YAML config file loading for smelt decode.
package config

import (
	"os"
	"strings"
)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references in the input
// with environment variable values. Unset or empty variables without a
// default expand to the empty string; required values fail at downstream
// validation instead (e.g. the adapter URL check). Dollar signs outside
// the ${...} form are left alone.
func ExpandEnv(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for {
		start := strings.Index(input, "${")
		if start < 0 {
			break
		}
		end := strings.Index(input[start:], "}")
		if end < 0 {
			break
		}
		b.WriteString(input[:start])
		ref := input[start+2 : start+end]
		input = input[start+end+1:]

		name, fallback, hasFallback := strings.Cut(ref, ":-")
		if !validEnvName(name) {
			b.WriteString("${")
			b.WriteString(ref)
			b.WriteString("}")
			continue
		}
		if v := os.Getenv(name); v != "" {
			b.WriteString(v)
		} else if hasFallback {
			b.WriteString(fallback)
		}
	}
	b.WriteString(input)
	return b.String()
}

func validEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
