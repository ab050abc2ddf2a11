// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// raw (as produced by runtime/debug.Stack) that points into an internal package.
func InternalPaths(raw []byte) []string {
	lines := strings.Split(string(raw), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc := line
		if sp := strings.IndexByte(line[idx:], ' '); sp != -1 {
			loc = line[:idx+sp]
		}

		if _, rel, ok := strings.Cut(loc, "/internal/"); ok {
			paths = append(paths, "internal/"+rel)
		}
	}

	return paths
}
