package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ghpages"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage ghpages configuration.

Running bare 'ghpages config' is the same as 'ghpages config show'.
Every key can also be set with a GHPAGES_ environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# ghpages configuration
# See: ghpages config show (for effective values and sources)

# GitHub
github:
  # Account that owns the repositories (homepage and remote URL)
  account: "{{ .Account }}"

  # Remote URL protocol: ssh or https (default: ssh)
  protocol: "{{ .Protocol }}"

# Remote to add and push to (default: origin)
remote: "{{ .Remote }}"

# Branch to publish (default: main)
branch: "{{ .Branch }}"

# How to move onto the branch when elsewhere: create (checkout -b) or rename (branch -M)
branch_mode: "{{ .BranchMode }}"

# npm, yarn, pnpm, or auto to detect from the lockfile (default: npm)
package_manager: "{{ .PackageManager }}"

# Deployment scripts written to package.json
deploy:
  # Helper installed as a dev dependency (default: gh-pages)
  package: "{{ .DeployPackage }}"

  # predeploy script (default: "<package manager> run build")
  build_script: "{{ .BuildScript }}"

  # Directory the helper publishes (default: build)
  build_dir: "{{ .BuildDir }}"

# Manifest file, relative to the project directory (default: package.json)
manifest: "{{ .Manifest }}"

commit:
  # Message for the setup commit (default: "Initial commit")
  message: "{{ .CommitMessage }}"
`

type configTemplateData struct {
	Account        string
	Protocol       string
	Remote         string
	Branch         string
	BranchMode     string
	PackageManager string
	DeployPackage  string
	BuildScript    string
	BuildDir       string
	Manifest       string
	CommitMessage  string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		Account:        viper.GetString("github.account"),
		Protocol:       viper.GetString("github.protocol"),
		Remote:         viper.GetString("remote"),
		Branch:         viper.GetString("branch"),
		BranchMode:     viper.GetString("branch_mode"),
		PackageManager: viper.GetString("package_manager"),
		DeployPackage:  viper.GetString("deploy.package"),
		BuildScript:    viper.GetString("deploy.build_script"),
		BuildDir:       viper.GetString("deploy.build_dir"),
		Manifest:       viper.GetString("manifest"),
		CommitMessage:  viper.GetString("commit.message"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "name", EnvVar: "GHPAGES_NAME"},
	{Key: "github.account", EnvVar: "GHPAGES_GITHUB_ACCOUNT"},
	{Key: "github.protocol", EnvVar: "GHPAGES_GITHUB_PROTOCOL"},
	{Key: "remote", EnvVar: "GHPAGES_REMOTE"},
	{Key: "branch", EnvVar: "GHPAGES_BRANCH"},
	{Key: "branch_mode", EnvVar: "GHPAGES_BRANCH_MODE"},
	{Key: "package_manager", EnvVar: "GHPAGES_PACKAGE_MANAGER"},
	{Key: "deploy.package", EnvVar: "GHPAGES_DEPLOY_PACKAGE"},
	{Key: "deploy.build_script", EnvVar: "GHPAGES_DEPLOY_BUILD_SCRIPT"},
	{Key: "deploy.build_dir", EnvVar: "GHPAGES_DEPLOY_BUILD_DIR"},
	{Key: "manifest", EnvVar: "GHPAGES_MANIFEST"},
	{Key: "commit.message", EnvVar: "GHPAGES_COMMIT_MESSAGE"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.GetString(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %q  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'ghpages config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
