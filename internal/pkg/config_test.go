package pkg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `
[project]
name = "demo"
entry = "main.cb"
output = "bin/demo"

[build]
optimize = false
clang = "/usr/bin/clang-18"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Project.Name != "demo" {
		t.Errorf("name = %q, want demo", config.Project.Name)
	}
	if config.Project.Entry != "main.cb" {
		t.Errorf("entry = %q, want main.cb", config.Project.Entry)
	}
	if config.Optimized() {
		t.Error("optimize = true, want false")
	}
	if config.Build.Clang != "/usr/bin/clang-18" {
		t.Errorf("clang = %q", config.Build.Clang)
	}
}

func TestOptimizeDefaultsOn(t *testing.T) {
	config := &ProjectConfig{}
	if !config.Optimized() {
		t.Error("optimize should default to true")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	original := GenerateDefault(filepath.Join("home", "My Project"))
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Project.Name != "my-project" {
		t.Errorf("name = %q, want my-project", loaded.Project.Name)
	}
	if loaded.Project.Entry != "main.cb" {
		t.Errorf("entry = %q, want main.cb", loaded.Project.Entry)
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("[project]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found := FindConfigFile(nested)
	if found == "" {
		t.Fatal("expected to find config walking up from nested dir")
	}
	resolved, _ := filepath.EvalSymlinks(found)
	expected, _ := filepath.EvalSymlinks(configPath)
	if resolved != expected {
		t.Errorf("found %q, want %q", resolved, expected)
	}

	if GetProjectRoot(nested) == "" {
		t.Error("GetProjectRoot should locate the config directory")
	}
}

func TestFindConfigFileMissing(t *testing.T) {
	if found := FindConfigFile(t.TempDir()); found != "" {
		t.Errorf("expected empty result, got %q", found)
	}
}
