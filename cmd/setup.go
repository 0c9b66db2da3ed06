package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/ghpages/internal/output"
	"github.com/joescharf/ghpages/internal/runner"
	"github.com/joescharf/ghpages/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install gh-pages, configure package.json, and push to GitHub",
	Long: `Run the one-time GitHub Pages setup for the project directory:

  1. install gh-pages as a dev dependency
  2. set "homepage" and the predeploy/deploy scripts in package.json
  3. git init (if needed), add the origin remote (if missing), commit
  4. switch to main (if needed) and push with upstream tracking

The first failing step aborts the run; later steps are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupRun(cmd.Context())
	},
}

// setupFlags maps config keys to the setup flags that override them.
var setupFlags = []struct {
	key, flag, usage string
}{
	{"name", "name", "Project and repository name (default: directory name)"},
	{"github.account", "account", "GitHub account that owns the repository"},
	{"github.protocol", "protocol", "Remote URL protocol: ssh or https"},
	{"remote", "remote", "Remote name"},
	{"branch", "branch", "Branch to publish"},
	{"branch_mode", "branch-mode", "How to move onto the branch: create or rename"},
	{"package_manager", "package-manager", "npm, yarn, pnpm or auto"},
	{"deploy.build_dir", "build-dir", "Directory gh-pages publishes"},
	{"commit.message", "message", "Commit message"},
}

func init() {
	for _, f := range setupFlags {
		setupCmd.Flags().String(f.flag, "", f.usage)
		_ = viper.BindPFlag(f.key, setupCmd.Flags().Lookup(f.flag))
	}
	rootCmd.AddCommand(setupCmd)
}

func setupRun(ctx context.Context) error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}

	ui.Info("Setting up %s for GitHub Pages deployment", output.Cyan(opts.Name))
	ui.VerboseLog("directory: %s", opts.Dir)

	results, err := setup.New(opts, newRunner(), appFs, ui, dryRun).Run(ctx)
	if len(results) > 0 {
		fmt.Fprintln(ui.Out)
		if rerr := renderSteps(results); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		var re *runner.Error
		if errors.As(err, &re) && re.Stderr != "" {
			ui.Error("Error executing command '%s':\n%s", re.Command, re.Stderr)
		}
		return err
	}

	if dryRun {
		ui.DryRunMsg("No changes made")
		return nil
	}
	ui.Success("%s is set up for GitHub Pages at %s", opts.Name, opts.Homepage())
	ui.Info("Deploy with: %s run deploy", opts.PackageManager)
	return nil
}

func renderSteps(results []setup.StepResult) error {
	table := ui.Table([]string{"Step", "Status", "Detail"})
	for _, r := range results {
		if err := table.Append([]string{r.Name, output.StepColor(r.Status), r.Detail}); err != nil {
			return err
		}
	}
	return table.Render()
}
