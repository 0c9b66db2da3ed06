package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/joescharf/ghpages/internal/runner"
)

// Client defines the git operations the setup flow needs.
// All methods take a path parameter: the working tree to operate on.
type Client interface {
	Init(ctx context.Context, path string) error
	Remotes(ctx context.Context, path string) ([]string, error)
	AddRemote(ctx context.Context, path, name, url string) error
	AddAll(ctx context.Context, path string) error
	IsDirty(ctx context.Context, path string) (bool, error)
	Commit(ctx context.Context, path, message string) error
	CurrentBranch(ctx context.Context, path string) (string, error)
	CheckoutNewBranch(ctx context.Context, path, branch string) error
	RenameBranch(ctx context.Context, path, branch string) error
	Push(ctx context.Context, path, remote, branch string) error
}

// RealClient implements Client by running the git CLI through a runner.
type RealClient struct {
	runner runner.Runner
}

// NewClient returns a RealClient that executes commands with r.
func NewClient(r runner.Runner) *RealClient {
	return &RealClient{runner: r}
}

// HasRepo reports whether path contains repository metadata (.git).
func HasRepo(fs afero.Fs, path string) bool {
	_, err := fs.Stat(filepath.Join(path, ".git"))
	return err == nil
}

func (c *RealClient) git(ctx context.Context, path string, args ...string) error {
	_, err := c.runner.Run(ctx, runner.New(path, "git", args...))
	return err
}

func (c *RealClient) query(ctx context.Context, path string, args ...string) (string, error) {
	out, err := c.runner.Run(ctx, runner.Query(path, "git", args...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *RealClient) Init(ctx context.Context, path string) error {
	return c.git(ctx, path, "init")
}

func (c *RealClient) Remotes(ctx context.Context, path string) ([]string, error) {
	out, err := c.query(ctx, path, "remote")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (c *RealClient) AddRemote(ctx context.Context, path, name, url string) error {
	return c.git(ctx, path, "remote", "add", name, url)
}

func (c *RealClient) AddAll(ctx context.Context, path string) error {
	return c.git(ctx, path, "add", ".")
}

func (c *RealClient) IsDirty(ctx context.Context, path string) (bool, error) {
	out, err := c.query(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (c *RealClient) Commit(ctx context.Context, path, message string) error {
	return c.git(ctx, path, "commit", "-m", message)
}

func (c *RealClient) CurrentBranch(ctx context.Context, path string) (string, error) {
	return c.query(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
}

func (c *RealClient) CheckoutNewBranch(ctx context.Context, path, branch string) error {
	return c.git(ctx, path, "checkout", "-b", branch)
}

func (c *RealClient) RenameBranch(ctx context.Context, path, branch string) error {
	return c.git(ctx, path, "branch", "-M", branch)
}

func (c *RealClient) Push(ctx context.Context, path, remote, branch string) error {
	return c.git(ctx, path, "push", "-u", remote, branch)
}

// HasRemote reports whether name is one of remotes. Matching is exact.
func HasRemote(remotes []string, name string) bool {
	for _, r := range remotes {
		if r == name {
			return true
		}
	}
	return false
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Remote URL protocols.
const (
	ProtocolSSH   = "ssh"
	ProtocolHTTPS = "https"
)

// RemoteURL builds the GitHub remote URL for account/repo.
func RemoteURL(protocol, account, repo string) (string, error) {
	switch protocol {
	case ProtocolSSH, "":
		return fmt.Sprintf("git@github.com:%s/%s.git", account, repo), nil
	case ProtocolHTTPS:
		return fmt.Sprintf("https://github.com/%s/%s.git", account, repo), nil
	default:
		return "", fmt.Errorf("unknown remote protocol %q (want ssh or https)", protocol)
	}
}

// ExtractOwnerRepo parses a GitHub remote URL and returns owner/repo.
func ExtractOwnerRepo(remoteURL string) (owner, repo string, err error) {
	// Handle SSH: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.SplitN(remoteURL, ":", 2)
		if len(parts) != 2 {
			return "", "", fmt.Errorf("cannot parse SSH remote: %s", remoteURL)
		}
		path := strings.TrimSuffix(parts[1], ".git")
		segments := strings.SplitN(path, "/", 2)
		if len(segments) != 2 {
			return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
		}
		return segments[0], segments[1], nil
	}

	// Handle HTTPS: https://github.com/owner/repo.git
	trimmed := strings.TrimSuffix(remoteURL, ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")
	trimmed = strings.TrimPrefix(trimmed, "http://github.com/")
	segments := strings.SplitN(trimmed, "/", 2)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
	}
	return segments[0], segments[1], nil
}
