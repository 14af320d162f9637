package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"

	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

// lintResult is the outcome of parsing one matched path.
type lintResult struct {
	Path string
	Err  error
}

// expandGlobs resolves every pattern against the working directory tree
// and returns the union of matches, sorted for stable output.
func expandGlobs(patterns []string) ([]string, error) {
	matches := map[string]struct{}{}
	for _, pattern := range patterns {
		found, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		for _, path := range found {
			matches[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(matches))
	for path := range matches {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// lintPaths parses every path and returns one result per path in order.
// Files with identical content (by blake3 digest) are parsed once and the
// result reused for every path sharing that digest, since overlapping
// globs commonly match the same file more than once.
func lintPaths(paths []string) []lintResult {
	type parsed struct{ err error }
	byDigest := map[[32]byte]parsed{}

	results := make([]lintResult, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			results = append(results, lintResult{Path: path, Err: err})
			continue
		}

		digest := blake3.Sum256(source)
		p, cached := byDigest[digest]
		if !cached {
			_, parseErr := script.Parse(source)
			p = parsed{err: parseErr}
			byDigest[digest] = p
		}
		results = append(results, lintResult{Path: path, Err: p.err})
	}
	return results
}

// dialogueLint expands each glob against the working directory tree,
// parses every matched script, and reports one ok/FAIL line per file.
func dialogueLint(args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	paths, err := expandGlobs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no files matched")
		os.Exit(1)
	}

	failed := 0
	for _, res := range lintPaths(paths) {
		if res.Err != nil {
			fmt.Printf("FAIL %s: %v\n", res.Path, res.Err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", res.Path)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scripts failed\n", failed, len(paths))
		os.Exit(1)
	}
}
