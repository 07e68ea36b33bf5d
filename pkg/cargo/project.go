// Package cargo is the boundary to the cargo toolchain: locating a
// project, reading its manifest, and running cargo with fingerprint
// tracing enabled.
package cargo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrManifestNotFound means the given path does not contain a Cargo.toml.
var ErrManifestNotFound = errors.New("Cargo.toml not found")

// Project is a located cargo project.
type Project struct {
	Dir      string
	Manifest string
	Name     string
}

// FindProject locates the cargo project at dir. The manifest must exist;
// the package name is best-effort (workspace roots have no [package]
// section, in which case the directory name is used, like cargo itself
// displays workspace paths).
func FindProject(dir string) (Project, error) {
	manifest := filepath.Join(dir, "Cargo.toml")
	if _, err := os.Stat(manifest); err != nil {
		if os.IsNotExist(err) {
			return Project{}, fmt.Errorf("%w at %s", ErrManifestNotFound, manifest)
		}
		return Project{}, fmt.Errorf("checking %s: %w", manifest, err)
	}

	return Project{
		Dir:      dir,
		Manifest: manifest,
		Name:     packageName(manifest, dir),
	}, nil
}

// packageName reads package.name from the manifest, falling back to the
// directory name.
func packageName(manifest, dir string) string {
	k := koanf.New(".")
	if err := k.Load(file.Provider(manifest), toml.Parser()); err == nil {
		if name := k.String("package.name"); name != "" {
			return name
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	name := filepath.Base(abs)
	if name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return name
}
