// Package manifest edits package.json in place, keeping every key it does
// not touch in its original position.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrInvalidManifest is returned when the manifest is not a JSON object of the expected shape.
var ErrInvalidManifest = errors.New("invalid manifest")

// FileName is the manifest file name in a front-end project.
const FileName = "package.json"

var prettyOptions = &pretty.Options{Width: -1, Prefix: "", Indent: "  ", SortKeys: false}

// Edit holds the values written into the manifest.
type Edit struct {
	Homepage  string
	Predeploy string
	Deploy    string
}

// HomepageURL returns the GitHub Pages URL for a project identity.
func HomepageURL(name string) string {
	return fmt.Sprintf("https://%s.github.io", name)
}

// DeployScript returns the deploy script that publishes buildDir with the given helper binary.
func DeployScript(helper, buildDir string) string {
	return fmt.Sprintf("%s -d %s", helper, buildDir)
}

// Apply sets homepage, scripts.predeploy and scripts.deploy on data and
// returns the document re-indented with two spaces.
func Apply(data []byte, e Edit) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidManifest)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidManifest)
	}
	if scripts := root.Get("scripts"); scripts.Exists() && !scripts.IsObject() {
		return nil, fmt.Errorf("%w: scripts is not an object", ErrInvalidManifest)
	}

	out := data
	var err error
	for _, kv := range []struct{ path, value string }{
		{"homepage", e.Homepage},
		{"scripts.predeploy", e.Predeploy},
		{"scripts.deploy", e.Deploy},
	} {
		out, err = sjson.SetBytes(out, kv.path, kv.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", kv.path, err)
		}
	}
	return pretty.PrettyOptions(out, prettyOptions), nil
}

// Result describes an applied edit.
type Result struct {
	Path     string
	Homepage string
	Changed  bool
}

// Editor reads and rewrites a manifest file.
type Editor struct {
	Fs     afero.Fs
	Path   string
	DryRun bool
}

// NewEditor returns an Editor for the manifest at path.
func NewEditor(fs afero.Fs, path string, dryRun bool) *Editor {
	return &Editor{Fs: fs, Path: path, DryRun: dryRun}
}

// Update applies e to the manifest file. The file is left alone when the
// content would not change or in dry-run mode.
func (ed *Editor) Update(e Edit) (*Result, error) {
	data, err := afero.ReadFile(ed.Fs, ed.Path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	out, err := Apply(data, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ed.Path, err)
	}

	res := &Result{Path: ed.Path, Homepage: e.Homepage, Changed: !bytes.Equal(data, out)}
	if ed.DryRun || !res.Changed {
		return res, nil
	}

	mode := os.FileMode(0644)
	if info, err := ed.Fs.Stat(ed.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := afero.WriteFile(ed.Fs, ed.Path, out, mode); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return res, nil
}

// Summary is the deployment-relevant view of a manifest.
type Summary struct {
	Name            string
	Homepage        string
	Predeploy       string
	Deploy          string
	DevDependencies map[string]string
}

// HasDevDependency reports whether pkg is listed under devDependencies.
func (s *Summary) HasDevDependency(pkg string) bool {
	_, ok := s.DevDependencies[pkg]
	return ok
}

// Read loads the manifest at path and extracts its Summary.
func Read(fs afero.Fs, path string) (*Summary, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: %w: not valid JSON", path, ErrInvalidManifest)
	}

	root := gjson.ParseBytes(data)
	s := &Summary{
		Name:            root.Get("name").String(),
		Homepage:        root.Get("homepage").String(),
		Predeploy:       root.Get("scripts.predeploy").String(),
		Deploy:          root.Get("scripts.deploy").String(),
		DevDependencies: make(map[string]string),
	}
	// Iterate rather than build a path: scoped names like @scope/pkg are not valid gjson paths.
	root.Get("devDependencies").ForEach(func(key, value gjson.Result) bool {
		s.DevDependencies[key.String()] = value.String()
		return true
	})
	return s, nil
}
