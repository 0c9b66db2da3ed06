package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Package managers understood by the dependency installer.
const (
	NPM  = "npm"
	Yarn = "yarn"
	PNPM = "pnpm"
	Auto = "auto"
)

// Name returns the project identity for dir: the basename of its absolute path.
func Name(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	name := filepath.Base(abs)
	if name == string(filepath.Separator) || name == "." {
		return "", fmt.Errorf("cannot derive a project name from %s", abs)
	}
	return name, nil
}

// DetectPackageManager guesses the package manager from the lockfile in dir.
func DetectPackageManager(dir string) string {
	if exists(filepath.Join(dir, "pnpm-lock.yaml")) {
		return PNPM
	}
	if exists(filepath.Join(dir, "yarn.lock")) {
		return Yarn
	}
	return NPM
}

// ResolvePackageManager returns pm unless it is "auto" or empty, in which case
// the lockfile in dir decides.
func ResolvePackageManager(dir, pm string) string {
	if pm == "" || pm == Auto {
		return DetectPackageManager(dir)
	}
	return pm
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
