package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/ghpages/internal/checks"
	"github.com/joescharf/ghpages/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the project is ready for GitHub Pages",
	Long: `Inspect package.json and the git repository without changing anything
and report which setup steps are already in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun() error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}

	results := checks.NewChecker(appFs).Run(opts)

	ui.Info("Project: %s (%s)", output.Cyan(opts.Name), opts.Dir)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"Check", "OK", "Detail"})
	for _, c := range results {
		if err := table.Append([]string{c.Name, output.Mark(c.Passed), c.Detail}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(ui.Out)

	if checks.Passed(results) {
		ui.Success("Ready to deploy: %s run deploy", opts.PackageManager)
	} else {
		ui.Warning("Not ready for GitHub Pages; run 'ghpages setup'")
	}
	return nil
}
