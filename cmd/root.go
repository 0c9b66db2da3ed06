package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/ghpages/internal/output"
	"github.com/joescharf/ghpages/internal/project"
	"github.com/joescharf/ghpages/internal/runner"
	"github.com/joescharf/ghpages/internal/setup"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui    *output.UI
	appFs afero.Fs = afero.NewOsFs()

	verbose    bool
	dryRun     bool
	projectDir string
)

// newRunner builds the command runner, replaceable in tests.
var newRunner = func() runner.Runner {
	return runner.NewExec(ui, dryRun)
}

var rootCmd = &cobra.Command{
	Use:   "ghpages",
	Short: "Set up a front-end project for GitHub Pages deployment",
	Long: `ghpages prepares a front-end project for deployment to GitHub Pages.

It installs the gh-pages helper, adds a homepage and deploy scripts to
package.json, initializes the git repository and its remote, commits,
and pushes the main branch.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/ghpages/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GHPAGES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers the default value of every config key.
func setDefaults() {
	viper.SetDefault("name", "")
	viper.SetDefault("github.account", "ziadMhCs")
	viper.SetDefault("github.protocol", "ssh")
	viper.SetDefault("remote", "origin")
	viper.SetDefault("branch", "main")
	viper.SetDefault("branch_mode", setup.BranchModeCreate)
	viper.SetDefault("package_manager", project.NPM)
	viper.SetDefault("deploy.package", "gh-pages")
	viper.SetDefault("deploy.build_script", "")
	viper.SetDefault("deploy.build_dir", "build")
	viper.SetDefault("manifest", "package.json")
	viper.SetDefault("commit.message", "Initial commit")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// resolveOptions turns the effective configuration into setup options for
// the project directory. The project name falls back to the directory name.
func resolveOptions() (setup.Options, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return setup.Options{}, fmt.Errorf("resolve project directory: %w", err)
	}

	name := viper.GetString("name")
	if name == "" {
		if name, err = project.Name(dir); err != nil {
			return setup.Options{}, err
		}
	}

	pm := project.ResolvePackageManager(dir, viper.GetString("package_manager"))
	buildScript := viper.GetString("deploy.build_script")
	if buildScript == "" {
		buildScript = pm + " run build"
	}

	opts := setup.Options{
		Dir:            dir,
		Name:           name,
		Account:        viper.GetString("github.account"),
		Protocol:       viper.GetString("github.protocol"),
		Remote:         viper.GetString("remote"),
		Branch:         viper.GetString("branch"),
		BranchMode:     viper.GetString("branch_mode"),
		PackageManager: pm,
		DeployPackage:  viper.GetString("deploy.package"),
		BuildScript:    buildScript,
		BuildDir:       viper.GetString("deploy.build_dir"),
		Manifest:       viper.GetString("manifest"),
		CommitMessage:  viper.GetString("commit.message"),
	}
	if err := opts.Validate(); err != nil {
		return setup.Options{}, err
	}
	return opts, nil
}
