package checks

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/joescharf/ghpages/internal/git"
	"github.com/joescharf/ghpages/internal/manifest"
	"github.com/joescharf/ghpages/internal/setup"
)

// Check represents a single deployment readiness check.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Checker evaluates whether a project is set up for GitHub Pages.
type Checker struct {
	Fs      afero.Fs
	Inspect func(path string) (*git.RepoInfo, error)
}

// NewChecker returns a Checker reading files through fs and the repository with go-git.
func NewChecker(fs afero.Fs) *Checker {
	return &Checker{Fs: fs, Inspect: git.Inspect}
}

// Run evaluates all checks for the project described by opts. It never
// changes anything.
func (c *Checker) Run(opts setup.Options) []Check {
	var checks []Check
	checks = append(checks, c.manifestChecks(opts)...)
	checks = append(checks, c.repoChecks(opts)...)
	return checks
}

func (c *Checker) manifestChecks(opts setup.Options) []Check {
	labels := []string{"Manifest", "Homepage", "Predeploy script", "Deploy script", "Deploy package"}

	s, err := manifest.Read(c.Fs, opts.ManifestPath())
	if err != nil {
		detail := opts.Manifest + " unreadable"
		if errors.Is(err, afero.ErrFileNotFound) {
			detail = opts.Manifest + " missing"
		}
		return failAll(labels, detail)
	}

	edit := opts.ManifestEdit()
	return []Check{
		{Name: labels[0], Passed: true, Detail: opts.Manifest + " found"},
		expect(labels[1], s.Homepage, edit.Homepage),
		expect(labels[2], s.Predeploy, edit.Predeploy),
		expect(labels[3], s.Deploy, edit.Deploy),
		devDependency(labels[4], s, opts.DeployPackage),
	}
}

func (c *Checker) repoChecks(opts setup.Options) []Check {
	labels := []string{"Git repository", "Remote " + opts.Remote, "Branch"}

	info, err := c.Inspect(opts.Dir)
	if err != nil {
		detail := "cannot open repository"
		if errors.Is(err, git.ErrNoRepository) {
			detail = "no .git directory"
		}
		return failAll(labels, detail)
	}

	checks := []Check{{Name: labels[0], Passed: true, Detail: ".git found"}}

	url, ok := info.Remotes[opts.Remote]
	switch {
	case !ok:
		checks = append(checks, Check{Name: labels[1], Passed: false, Detail: "not configured"})
	default:
		detail := url
		if want, err := opts.RemoteURL(); err == nil && !sameRepo(url, want) {
			detail = fmt.Sprintf("%s (expected %s)", url, want)
		}
		checks = append(checks, Check{Name: labels[1], Passed: true, Detail: detail})
	}

	branch := Check{Name: labels[2], Passed: info.Branch == opts.Branch, Detail: "on " + info.Branch}
	if info.Branch == "" {
		branch.Detail = "detached HEAD"
	}
	if !info.HasCommits {
		branch.Detail += ", no commits"
	}
	checks = append(checks, branch)
	return checks
}

func expect(name, got, want string) Check {
	if got == want {
		return Check{Name: name, Passed: true, Detail: got}
	}
	if got == "" {
		return Check{Name: name, Passed: false, Detail: "not set (want " + want + ")"}
	}
	return Check{Name: name, Passed: false, Detail: fmt.Sprintf("%s (want %s)", got, want)}
}

func devDependency(name string, s *manifest.Summary, pkg string) Check {
	if v, ok := s.DevDependencies[pkg]; ok {
		return Check{Name: name, Passed: true, Detail: pkg + "@" + v}
	}
	return Check{Name: name, Passed: false, Detail: pkg + " not in devDependencies"}
}

func failAll(labels []string, detail string) []Check {
	checks := make([]Check, 0, len(labels))
	for _, l := range labels {
		checks = append(checks, Check{Name: l, Passed: false, Detail: detail})
	}
	return checks
}

// sameRepo compares two GitHub remotes by owner/repo so SSH and HTTPS forms match.
func sameRepo(a, b string) bool {
	ao, ar, err := git.ExtractOwnerRepo(a)
	if err != nil {
		return a == b
	}
	bo, br, err := git.ExtractOwnerRepo(b)
	if err != nil {
		return a == b
	}
	return ao == bo && ar == br
}

// Passed reports whether every check passed.
func Passed(checks []Check) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
