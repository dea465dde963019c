package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCountLines(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int64
	}{
		{"empty", "", 0},
		{"single terminated", "a\n", 1},
		{"single unterminated", "a", 1},
		{"multiple", "a\nb\nc\n", 3},
		{"trailing unterminated", "a\nb", 2},
	}

	for _, c := range cases {
		path := filepath.Join(t.TempDir(), "f.txt")
		if err := os.WriteFile(path, []byte(c.content), 0o644); err != nil {
			t.Fatalf("%s: write: %v", c.name, err)
		}

		got, err := CountLines(path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: CountLines = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCountLinesMissingFile(t *testing.T) {
	if _, err := CountLines(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
