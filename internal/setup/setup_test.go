package setup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/joescharf/ghpages/internal/manifest"
	"github.com/joescharf/ghpages/internal/output"
	"github.com/joescharf/ghpages/internal/runner"
)

// mockRunner records every command, returns canned stdout keyed by the
// rendered command line, and fails the commands listed in fail.
type mockRunner struct {
	outputs map[string]string
	fail    map[string]int
	calls   []string
}

func (m *mockRunner) Run(ctx context.Context, c runner.Command) (string, error) {
	line := c.String()
	m.calls = append(m.calls, line)
	if code, ok := m.fail[line]; ok {
		return "", &runner.Error{Command: line, ExitCode: code, Stderr: "simulated failure"}
	}
	return m.outputs[line], nil
}

const projectDir = "/work/my-app"

func testOptions() Options {
	return Options{
		Dir:            projectDir,
		Name:           "my-app",
		Account:        "ziadMhCs",
		Protocol:       "ssh",
		Remote:         "origin",
		Branch:         "main",
		BranchMode:     BranchModeCreate,
		PackageManager: "npm",
		DeployPackage:  "gh-pages",
		BuildScript:    "npm run build",
		BuildDir:       "build",
		Manifest:       "package.json",
		CommitMessage:  "Initial commit",
	}
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	doc := `{"name":"my-app","version":"0.1.0","scripts":{"start":"react-scripts start","build":"react-scripts build"}}`
	require.NoError(t, afero.WriteFile(fs, projectDir+"/package.json", []byte(doc), 0644))
	return fs
}

func testUI() *output.UI {
	return &output.UI{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}
}

func TestSetup_FreshProject(t *testing.T) {
	fs := testFs(t)
	r := &mockRunner{outputs: map[string]string{
		"git status --porcelain":          "A  package.json\n",
		"git rev-parse --abbrev-ref HEAD": "master\n",
	}}

	results, err := New(testOptions(), r, fs, testUI(), false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"npm install gh-pages --save-dev",
		"git init",
		"git remote",
		"git remote add origin git@github.com:ziadMhCs/my-app.git",
		"git add .",
		"git status --porcelain",
		`git commit -m "Initial commit"`,
		"git rev-parse --abbrev-ref HEAD",
		"git checkout -b main",
		"git push -u origin main",
	}, r.calls)

	data, err := afero.ReadFile(fs, projectDir+"/package.json")
	require.NoError(t, err)
	assert.Equal(t, "https://my-app.github.io", gjson.GetBytes(data, "homepage").String())
	assert.Equal(t, "npm run build", gjson.GetBytes(data, "scripts.predeploy").String())
	assert.Equal(t, "gh-pages -d build", gjson.GetBytes(data, "scripts.deploy").String())

	require.Len(t, results, 4)
	for _, res := range results {
		assert.Equal(t, StatusDone, res.Status, res.Name)
	}
}

func TestSetup_StopsAtFirstFailure(t *testing.T) {
	fs := testFs(t)
	r := &mockRunner{fail: map[string]int{"npm install gh-pages --save-dev": 2}}

	results, err := New(testOptions(), r, fs, testUI(), false).Run(context.Background())
	require.Error(t, err)

	var re *runner.Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.ExitCode)
	assert.Contains(t, err.Error(), "install")

	assert.Equal(t, []string{"npm install gh-pages --save-dev"}, r.calls, "no later step may run")

	require.Len(t, results, 4)
	assert.Equal(t, StatusFailed, results[0].Status)
	for _, res := range results[1:] {
		assert.Equal(t, StatusSkipped, res.Status, res.Name)
	}

	data, err := afero.ReadFile(fs, projectDir+"/package.json")
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(data, "homepage").Exists(), "manifest must be untouched")
}

func TestSetup_ManifestFailureStopsBeforeGit(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &mockRunner{}

	results, err := New(testOptions(), r, fs, testUI(), false).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest")
	assert.Equal(t, []string{"npm install gh-pages --save-dev"}, r.calls)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, StatusSkipped, results[2].Status)
	assert.Equal(t, StatusSkipped, results[3].Status)
}

func TestSetup_InvalidManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, projectDir+"/package.json", []byte("[1,2]"), 0644))

	_, err := New(testOptions(), &mockRunner{}, fs, testUI(), false).Run(context.Background())
	assert.ErrorIs(t, err, manifest.ErrInvalidManifest)
}

func TestSetup_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Account = ""
	r := &mockRunner{}

	_, err := New(opts, r, testFs(t), testUI(), false).Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Empty(t, r.calls)
}

func TestSetup_DryRun(t *testing.T) {
	fs := testFs(t)
	ui := testUI()
	r := runner.NewExec(ui, true)

	results, err := New(testOptions(), r, fs, ui, true).Run(context.Background())
	require.NoError(t, err)
	for _, res := range results {
		assert.Equal(t, StatusPlanned, res.Status, res.Name)
	}

	data, err := afero.ReadFile(fs, projectDir+"/package.json")
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(data, "homepage").Exists(), "dry-run must not write the manifest")

	errOut := ui.ErrOut.(*bytes.Buffer).String()
	assert.Contains(t, errOut, "Would run: npm install gh-pages --save-dev")
	assert.Contains(t, errOut, "Would run: git init")
	assert.Contains(t, errOut, `Would run: git commit -m "Initial commit"`)
	assert.Contains(t, errOut, "Would run: git push -u origin main")
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, testOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty name", func(o *Options) { o.Name = "" }},
		{"name with slash", func(o *Options) { o.Name = "a/b" }},
		{"name with space", func(o *Options) { o.Name = "my app" }},
		{"bad branch mode", func(o *Options) { o.BranchMode = "merge" }},
		{"bad protocol", func(o *Options) { o.Protocol = "ftp" }},
		{"empty branch", func(o *Options) { o.Branch = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions()
			tt.mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
		})
	}
}

func TestOptions_Derived(t *testing.T) {
	o := testOptions()
	assert.Equal(t, "/work/my-app/package.json", o.ManifestPath())
	assert.Equal(t, "https://my-app.github.io", o.Homepage())

	url, err := o.RemoteURL()
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:ziadMhCs/my-app.git", url)

	e := o.ManifestEdit()
	assert.Equal(t, "npm run build", e.Predeploy)
	assert.Equal(t, "gh-pages -d build", e.Deploy)
}
