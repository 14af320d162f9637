package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestExpandGlobsMatchesAndDedups(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.yaml", "nodes:\n  main:\n    - exit: 0\n")
	writeFixture(t, dir, "b.yaml", "nodes:\n  main:\n    - exit: 0\n")
	writeFixture(t, dir, "c.txt", "not a script")

	paths, err := expandGlobs([]string{
		filepath.Join(dir, "*.yaml"),
		filepath.Join(dir, "a.yaml"), // overlaps with the glob above
	})
	if err != nil {
		t.Fatalf("expandGlobs: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 deduplicated matches, got %d: %v", len(paths), paths)
	}
}

func TestExpandGlobsInvalidPattern(t *testing.T) {
	if _, err := expandGlobs([]string{"["}); err == nil {
		t.Fatal("expected an error for a malformed glob")
	}
}

func TestLintPathsReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good.yaml", "nodes:\n  main:\n    - exit: 0\n")
	bad := writeFixture(t, dir, "bad.yaml", "not: [valid, dialogue")

	results := lintPaths([]string{good, bad})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("expected %s to parse cleanly, got %v", good, results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatalf("expected %s to fail to parse", bad)
	}
}

func TestLintPathsReusesResultForIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	content := "nodes:\n  main:\n    - exit: 0\n"
	a := writeFixture(t, dir, "a.yaml", content)
	b := writeFixture(t, dir, "b.yaml", content)

	results := lintPaths([]string{a, b})
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("unexpected error for %s: %v", res.Path, res.Err)
		}
	}

	// Identical failing files report the very same error value, because
	// the second path reuses the first path's parse result.
	badA := writeFixture(t, dir, "bad_a.yaml", "not: [valid, dialogue")
	badB := writeFixture(t, dir, "bad_b.yaml", "not: [valid, dialogue")
	bad := lintPaths([]string{badA, badB})
	if bad[0].Err == nil || bad[0].Err != bad[1].Err {
		t.Fatalf("expected identical content to share one parse result, got %v and %v", bad[0].Err, bad[1].Err)
	}
}
