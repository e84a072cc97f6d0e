package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveHome_EnvVar(t *testing.T) {
	t.Setenv("FLOWDSL_HOME", "/custom/path")

	if got := ResolveHome(nil).Dir; got != "/custom/path" {
		t.Errorf("ResolveHome().Dir = %q, want %q", got, "/custom/path")
	}
}

func TestResolveHome_ConfigWins(t *testing.T) {
	t.Setenv("FLOWDSL_HOME", "/from/env")

	if got := ResolveHome(&Config{Home: "/from/config"}).Dir; got != "/from/config" {
		t.Errorf("ResolveHome().Dir = %q, want %q", got, "/from/config")
	}
}

func TestResolveHome_RelativeToConfigFile(t *testing.T) {
	t.Setenv("FLOWDSL_HOME", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("home: .flowdsl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, ".flowdsl")
	if got := ResolveHome(cfg).Dir; got != want {
		t.Errorf("ResolveHome().Dir = %q, want %q", got, want)
	}
}

func TestResolveHome_FallbackNotEmpty(t *testing.T) {
	t.Setenv("FLOWDSL_HOME", "")

	if got := ResolveHome(&Config{}).Dir; got == "" {
		t.Error("ResolveHome() returned an empty directory")
	}
}

func TestHomeSubdirs(t *testing.T) {
	h := Home{Dir: "/test/home"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"catalog", h.CatalogDir(), filepath.Join("/test/home", "catalog")},
		{"reports", h.ReportsDir(), filepath.Join("/test/home", "reports")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s dir = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestHome_CatalogDirs(t *testing.T) {
	h := Home{Dir: t.TempDir()}

	if got := h.CatalogDirs([]string{"extra"}); !reflect.DeepEqual(got, []string{"extra"}) {
		t.Errorf("without home catalog: got %v", got)
	}

	if err := os.Mkdir(h.CatalogDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	want := []string{h.CatalogDir(), "extra"}
	if got := h.CatalogDirs([]string{"extra"}); !reflect.DeepEqual(got, want) {
		t.Errorf("with home catalog: got %v, want %v", got, want)
	}
}
