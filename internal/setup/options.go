package setup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joescharf/ghpages/internal/git"
	"github.com/joescharf/ghpages/internal/manifest"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid options")

// Branch modes for moving the current branch onto the target branch.
const (
	// BranchModeCreate starts a new target branch from HEAD and leaves the old one behind.
	BranchModeCreate = "create"
	// BranchModeRename renames the current branch, keeping its history under the new name.
	BranchModeRename = "rename"
)

// Options is the explicit configuration every setup step receives.
type Options struct {
	Dir  string
	Name string

	Account  string
	Protocol string
	Remote   string

	Branch     string
	BranchMode string

	PackageManager string
	DeployPackage  string
	BuildScript    string
	BuildDir       string
	Manifest       string

	CommitMessage string
}

// Validate reports the first missing or malformed option.
func (o Options) Validate() error {
	required := []struct{ name, value string }{
		{"dir", o.Dir},
		{"name", o.Name},
		{"account", o.Account},
		{"remote", o.Remote},
		{"branch", o.Branch},
		{"package manager", o.PackageManager},
		{"deploy package", o.DeployPackage},
		{"build script", o.BuildScript},
		{"build dir", o.BuildDir},
		{"manifest", o.Manifest},
		{"commit message", o.CommitMessage},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidOptions, r.name)
		}
	}
	if strings.ContainsAny(o.Name, " \t/\\:") {
		return fmt.Errorf("%w: project name %q cannot be used as a repository name", ErrInvalidOptions, o.Name)
	}
	switch o.BranchMode {
	case BranchModeCreate, BranchModeRename:
	default:
		return fmt.Errorf("%w: branch mode %q (want %s or %s)", ErrInvalidOptions, o.BranchMode, BranchModeCreate, BranchModeRename)
	}
	if _, err := o.RemoteURL(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// ManifestPath returns the manifest file path inside Dir.
func (o Options) ManifestPath() string {
	return filepath.Join(o.Dir, o.Manifest)
}

// Homepage returns the GitHub Pages URL written into the manifest.
func (o Options) Homepage() string {
	return manifest.HomepageURL(o.Name)
}

// RemoteURL returns the URL the remote is created with.
func (o Options) RemoteURL() (string, error) {
	return git.RemoteURL(o.Protocol, o.Account, o.Name)
}

// ManifestEdit returns the manifest fields the setup writes.
func (o Options) ManifestEdit() manifest.Edit {
	return manifest.Edit{
		Homepage:  o.Homepage(),
		Predeploy: o.BuildScript,
		Deploy:    manifest.DeployScript(o.DeployPackage, o.BuildDir),
	}
}
