package deps

import (
	"context"
	"errors"
	"fmt"

	"github.com/joescharf/ghpages/internal/project"
	"github.com/joescharf/ghpages/internal/runner"
)

// ErrUnknownPackageManager is returned for a package manager with no install recipe.
var ErrUnknownPackageManager = errors.New("unknown package manager")

// Installer adds development dependencies to a front-end project.
type Installer struct {
	Runner         runner.Runner
	Dir            string
	PackageManager string
}

// NewInstaller returns an Installer for the project in dir.
func NewInstaller(r runner.Runner, dir, packageManager string) *Installer {
	return &Installer{Runner: r, Dir: dir, PackageManager: packageManager}
}

// DevInstallArgs returns the argv that installs pkg as a dev dependency.
func DevInstallArgs(packageManager, pkg string) ([]string, error) {
	switch packageManager {
	case project.NPM:
		return []string{"npm", "install", pkg, "--save-dev"}, nil
	case project.Yarn:
		return []string{"yarn", "add", pkg, "--dev"}, nil
	case project.PNPM:
		return []string{"pnpm", "add", pkg, "--save-dev"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPackageManager, packageManager)
	}
}

// Install runs the package manager to add pkg as a dev dependency.
func (i *Installer) Install(ctx context.Context, pkg string) error {
	argv, err := DevInstallArgs(i.PackageManager, pkg)
	if err != nil {
		return err
	}
	if _, err := i.Runner.Run(ctx, runner.New(i.Dir, argv[0], argv[1:]...)); err != nil {
		return fmt.Errorf("install %s: %w", pkg, err)
	}
	return nil
}
