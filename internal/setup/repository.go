package setup

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/joescharf/ghpages/internal/git"
)

// Reporter receives progress messages from the setup steps.
type Reporter interface {
	Info(format string, a ...any)
	Success(format string, a ...any)
	Warning(format string, a ...any)
}

// Initializer makes sure the project is a repository with a remote and a commit.
type Initializer struct {
	Git    git.Client
	Fs     afero.Fs
	UI     Reporter
	DryRun bool
}

// Run initializes the repository if needed, adds the remote when it is
// missing, then stages and commits everything.
//
// An existing remote is kept as is; its URL is not compared. A clean tree is
// not an error: the commit is skipped so reruns succeed.
func (i *Initializer) Run(ctx context.Context, opts Options) (string, error) {
	if !git.HasRepo(i.Fs, opts.Dir) {
		i.UI.Info("Initializing git repository...")
		if err := i.Git.Init(ctx, opts.Dir); err != nil {
			return "", fmt.Errorf("init repository: %w", err)
		}
	}

	remotes, err := i.Git.Remotes(ctx, opts.Dir)
	if err != nil {
		return "", fmt.Errorf("check remotes: %w", err)
	}

	var detail string
	if git.HasRemote(remotes, opts.Remote) {
		i.UI.Info("Remote '%s' already exists. Skipping remote addition.", opts.Remote)
		detail = fmt.Sprintf("remote %s kept", opts.Remote)
	} else {
		url, err := opts.RemoteURL()
		if err != nil {
			return "", err
		}
		i.UI.Info("Adding remote '%s' -> %s", opts.Remote, url)
		if err := i.Git.AddRemote(ctx, opts.Dir, opts.Remote, url); err != nil {
			return "", fmt.Errorf("add remote %s: %w", opts.Remote, err)
		}
		detail = fmt.Sprintf("remote %s -> %s", opts.Remote, url)
	}

	i.UI.Info("Staging and committing files...")
	if err := i.Git.AddAll(ctx, opts.Dir); err != nil {
		return "", fmt.Errorf("stage files: %w", err)
	}

	if !i.DryRun {
		dirty, err := i.Git.IsDirty(ctx, opts.Dir)
		if err != nil {
			return "", fmt.Errorf("check status: %w", err)
		}
		if !dirty {
			i.UI.Warning("Nothing to commit, working tree clean. Skipping commit.")
			return detail + ", nothing to commit", nil
		}
	}

	if err := i.Git.Commit(ctx, opts.Dir, opts.CommitMessage); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return detail + fmt.Sprintf(", committed %q", opts.CommitMessage), nil
}

// Publisher moves the work onto the target branch and pushes it.
type Publisher struct {
	Git git.Client
	UI  Reporter
}

// Run switches to the target branch when HEAD is elsewhere, then pushes it
// to the remote with upstream tracking.
func (p *Publisher) Run(ctx context.Context, opts Options) (string, error) {
	current, err := p.Git.CurrentBranch(ctx, opts.Dir)
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}

	if current != opts.Branch {
		switch opts.BranchMode {
		case BranchModeRename:
			p.UI.Info("Renaming branch '%s' to '%s'...", current, opts.Branch)
			err = p.Git.RenameBranch(ctx, opts.Dir, opts.Branch)
		default:
			p.UI.Info("Not on '%s', creating it...", opts.Branch)
			err = p.Git.CheckoutNewBranch(ctx, opts.Dir, opts.Branch)
		}
		if err != nil {
			return "", fmt.Errorf("switch to %s: %w", opts.Branch, err)
		}
	}

	p.UI.Info("Pushing '%s' to '%s'...", opts.Branch, opts.Remote)
	if err := p.Git.Push(ctx, opts.Dir, opts.Remote, opts.Branch); err != nil {
		return "", fmt.Errorf("push %s: %w", opts.Branch, err)
	}
	return fmt.Sprintf("pushed %s to %s", opts.Branch, opts.Remote), nil
}
