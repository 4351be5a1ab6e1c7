package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(tmp, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestDataDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := dataDir()
	if err != nil {
		t.Fatalf("dataDir() error: %v", err)
	}
	if want := filepath.Join(tmp, appName, "layouts"); dir != want {
		t.Errorf("dataDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_DATA_HOME", "")
	dir, _ = dataDir()
	if !strings.HasSuffix(dir, filepath.Join(".local", "share", appName, "layouts")) {
		t.Errorf("dataDir() without XDG = %q", dir)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("WARREN_ADDR", ":9000")
	if got := envOr("ADDR", ":8080"); got != ":9000" {
		t.Errorf("envOr(ADDR) = %q", got)
	}
	if got := envOr("UNSET_FOR_TEST", "fallback"); got != "fallback" {
		t.Errorf("envOr(UNSET_FOR_TEST) = %q", got)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "ascii", []string{"ascii"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and blanks", " ascii, ,json ", []string{"ascii", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
				t.Errorf("parseFormats(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "crypt.toml", "crypt"},
		{"", "dir/crypt.yaml", "dir/crypt"},
		{"out/map", "crypt.toml", "out/map"},
		{"out/map.svg", "crypt.toml", "out/map"},
		{"out/map.tree.svg", "crypt.toml", "out/map"},
		{"out/map.v2", "crypt.toml", "out/map.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		base, format, input, want string
	}{
		{"crypt", "svg", "crypt.toml", "crypt.svg"},
		{"crypt", "ascii", "crypt.toml", "crypt.txt"},
		{"crypt", "tree", "crypt.toml", "crypt.tree.svg"},
		{"crypt", "json", "crypt.json", "crypt.layout.json"},
		{"crypt", "json", "", "crypt.json"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.base, tt.format, tt.input); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.base, tt.format, tt.input, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "crypt")
	artifacts := map[string][]byte{"ascii": []byte("#"), "svg": []byte("<svg/>")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "ascii", "png"}, base, "")
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	want := []string{base + ".svg", base + ".txt"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
	if data, _ := os.ReadFile(base + ".txt"); string(data) != "#" {
		t.Errorf("ascii artifact = %q", data)
	}
}
