package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func assertSamePath(t *testing.T, want, got string) {
	t.Helper()
	wantEval, err := filepath.EvalSymlinks(want)
	if err != nil {
		t.Fatalf("eval %s: %v", want, err)
	}
	gotEval, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("eval %s: %v", got, err)
	}
	if wantEval != gotEval {
		t.Fatalf("got %q, want %q", gotEval, wantEval)
	}
}

func TestFindRootFromSubdir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".ordr"), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	assertSamePath(t, root, FindRoot(sub))
}

func TestFindRootPrefersNearest(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "inner")
	for _, d := range []string{filepath.Join(outer, ".ordr"), filepath.Join(inner, ".ordr")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	assertSamePath(t, inner, FindRoot(inner))
}

func TestFindRootWithoutProject(t *testing.T) {
	dir := t.TempDir()
	if got := FindRoot(dir); got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
}

func TestFindRootIgnoresDataFile(t *testing.T) {
	dir := t.TempDir()
	// a plain file named .ordr is not a project
	if err := os.WriteFile(filepath.Join(dir, ".ordr"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := FindRoot(dir); got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
}
