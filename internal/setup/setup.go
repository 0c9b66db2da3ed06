// Package setup runs the GitHub Pages setup flow: install the deploy helper,
// edit the manifest, prepare the repository and push it.
package setup

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/joescharf/ghpages/internal/deps"
	"github.com/joescharf/ghpages/internal/git"
	"github.com/joescharf/ghpages/internal/manifest"
	"github.com/joescharf/ghpages/internal/runner"
)

// Step outcomes reported in StepResult.Status.
const (
	StatusDone    = "done"
	StatusPlanned = "planned"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Step names, in execution order.
const (
	StepInstall    = "install"
	StepManifest   = "manifest"
	StepRepository = "repository"
	StepPublish    = "publish"
)

// StepResult is the outcome of one setup step.
type StepResult struct {
	Name   string
	Status string
	Detail string
}

// DependencyInstaller installs a development dependency.
type DependencyInstaller interface {
	Install(ctx context.Context, pkg string) error
}

// ManifestEditor applies the deploy fields to the manifest.
type ManifestEditor interface {
	Update(e manifest.Edit) (*manifest.Result, error)
}

// Setup runs the steps in a fixed order and stops at the first failure.
type Setup struct {
	Opts      Options
	Installer DependencyInstaller
	Editor    ManifestEditor
	Init      *Initializer
	Publish   *Publisher
	UI        Reporter
	DryRun    bool
}

// New wires a Setup whose commands go through r and whose file access goes through fs.
func New(opts Options, r runner.Runner, fs afero.Fs, ui Reporter, dryRun bool) *Setup {
	gc := git.NewClient(r)
	return &Setup{
		Opts:      opts,
		Installer: deps.NewInstaller(r, opts.Dir, opts.PackageManager),
		Editor:    manifest.NewEditor(fs, opts.ManifestPath(), dryRun),
		Init:      &Initializer{Git: gc, Fs: fs, UI: ui, DryRun: dryRun},
		Publish:   &Publisher{Git: gc, UI: ui},
		UI:        ui,
		DryRun:    dryRun,
	}
}

type step struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Run executes every step. The returned results always list all four
// steps; those after a failure are marked skipped.
func (s *Setup) Run(ctx context.Context) ([]StepResult, error) {
	if err := s.Opts.Validate(); err != nil {
		return nil, err
	}

	steps := []step{
		{StepInstall, s.install},
		{StepManifest, s.editManifest},
		{StepRepository, func(ctx context.Context) (string, error) { return s.Init.Run(ctx, s.Opts) }},
		{StepPublish, func(ctx context.Context) (string, error) { return s.Publish.Run(ctx, s.Opts) }},
	}

	done := StatusDone
	if s.DryRun {
		done = StatusPlanned
	}

	results := make([]StepResult, 0, len(steps))
	var failed error
	for _, st := range steps {
		if failed != nil {
			results = append(results, StepResult{Name: st.name, Status: StatusSkipped})
			continue
		}
		detail, err := st.run(ctx)
		if err != nil {
			failed = fmt.Errorf("%s: %w", st.name, err)
			results = append(results, StepResult{Name: st.name, Status: StatusFailed, Detail: err.Error()})
			continue
		}
		results = append(results, StepResult{Name: st.name, Status: done, Detail: detail})
	}
	return results, failed
}

func (s *Setup) install(ctx context.Context) (string, error) {
	s.UI.Info("Installing %s via %s...", s.Opts.DeployPackage, s.Opts.PackageManager)
	if err := s.Installer.Install(ctx, s.Opts.DeployPackage); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s, dev)", s.Opts.DeployPackage, s.Opts.PackageManager), nil
}

func (s *Setup) editManifest(ctx context.Context) (string, error) {
	s.UI.Info("Updating %s...", s.Opts.Manifest)
	res, err := s.Editor.Update(s.Opts.ManifestEdit())
	if err != nil {
		return "", err
	}
	switch {
	case !res.Changed:
		s.UI.Info("%s already up to date", s.Opts.Manifest)
	case s.DryRun:
		s.UI.Warning("[DRY-RUN] Would update %s with homepage: %s", s.Opts.Manifest, res.Homepage)
	default:
		s.UI.Success("Updated %s with homepage: %s", s.Opts.Manifest, res.Homepage)
	}
	return "homepage " + res.Homepage, nil
}
