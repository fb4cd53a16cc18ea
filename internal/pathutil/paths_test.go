package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRedactPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"config", "/home/user/.facsexne/config.yaml", ".../.facsexne/config.yaml"},
		{"result file", "/scratch/runs/temp_s0.50000000_gc0.10000000.out", ".../runs/temp_s0.50000000_gc0.10000000.out"},
		{"root file", "/file.txt", "file.txt"},
		{"relative", "dir/file.txt", ".../dir/file.txt"},
		{"just filename", "file.txt", "file.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactPath(tt.input); got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		input string
		want  string
	}{
		{"~", home},
		{"~/runs", filepath.Join(home, "runs")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"~other/path", "~other/path"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.input)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEnsureDir_CreatesNested(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b", "..", "c")

	got, err := EnsureDir(dir)
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	want := filepath.Join(base, "a", "c")
	if got != want {
		t.Errorf("EnsureDir = %q, want %q", got, want)
	}
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s, err = %v", want, err)
	}
}

func TestEnsureDir_EmptyIsCurrentDir(t *testing.T) {
	got, err := EnsureDir("")
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if got != "." {
		t.Errorf("EnsureDir(\"\") = %q, want \".\"", got)
	}
}

func TestEnsureDir_RejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := EnsureDir(file); err == nil {
		t.Error("expected error when the path is a regular file")
	}
}

func TestEnsureDir_RejectsNullByte(t *testing.T) {
	if _, err := EnsureDir("bad\x00dir"); err == nil {
		t.Error("expected error for path with null byte")
	}
}
