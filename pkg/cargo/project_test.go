package cargo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindProject(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"my-app\"\nversion = \"0.1.0\"\n")

	p, err := FindProject(dir)
	if err != nil {
		t.Fatalf("FindProject: %v", err)
	}
	if p.Dir != dir {
		t.Errorf("Dir = %q, want %q", p.Dir, dir)
	}
	if p.Manifest != filepath.Join(dir, "Cargo.toml") {
		t.Errorf("Manifest = %q", p.Manifest)
	}
	if p.Name != "my-app" {
		t.Errorf("Name = %q, want %q", p.Name, "my-app")
	}
}

func TestFindProjectMissingManifest(t *testing.T) {
	_, err := FindProject(t.TempDir())
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("err = %v, want ErrManifestNotFound", err)
	}
}

func TestFindProjectWorkspaceRoot(t *testing.T) {
	// Workspace manifests have no [package] section; the directory name is
	// the fallback.
	dir := t.TempDir()
	writeManifest(t, dir, "[workspace]\nmembers = [\"crates/*\"]\n")

	p, err := FindProject(dir)
	if err != nil {
		t.Fatalf("FindProject: %v", err)
	}
	if p.Name != filepath.Base(dir) {
		t.Errorf("Name = %q, want %q", p.Name, filepath.Base(dir))
	}
}

func TestFindProjectMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "not toml [ at all")

	p, err := FindProject(dir)
	if err != nil {
		t.Fatalf("FindProject: %v", err)
	}
	if p.Name != filepath.Base(dir) {
		t.Errorf("Name = %q, want directory fallback %q", p.Name, filepath.Base(dir))
	}
}
