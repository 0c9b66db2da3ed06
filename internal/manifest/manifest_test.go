package manifest

import (
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testEdit = Edit{
	Homepage:  HomepageURL("my-app"),
	Predeploy: "npm run build",
	Deploy:    DeployScript("gh-pages", "build"),
}

const createReactApp = `{"name":"my-app","version":"0.1.0","scripts":{"start":"react-scripts start","build":"react-scripts build"}}`

func TestHomepageURL(t *testing.T) {
	assert.Equal(t, "https://my-app.github.io", HomepageURL("my-app"))
}

func TestDeployScript(t *testing.T) {
	assert.Equal(t, "gh-pages -d build", DeployScript("gh-pages", "build"))
	assert.Equal(t, "gh-pages -d dist", DeployScript("gh-pages", "dist"))
}

func TestApply_ExactOutput(t *testing.T) {
	out, err := Apply([]byte(createReactApp), testEdit)
	require.NoError(t, err)

	want := `{
  "name": "my-app",
  "version": "0.1.0",
  "scripts": {
    "start": "react-scripts start",
    "build": "react-scripts build",
    "predeploy": "npm run build",
    "deploy": "gh-pages -d build"
  },
  "homepage": "https://my-app.github.io"
}
`
	assert.Equal(t, want, string(out))
}

func TestApply_PreservesOtherFields(t *testing.T) {
	in := `{
  "name": "my-app",
  "private": true,
  "dependencies": {"react": "^18.2.0", "react-dom": "^18.2.0"},
  "browserslist": {"production": [">0.2%", "not dead"], "development": ["last 1 chrome version"]},
  "eslintConfig": {"extends": ["react-app", "react-app/jest"]},
  "scripts": {"start": "react-scripts start", "deploy": "old-deploy"},
  "homepage": "https://example.com"
}`
	out, err := Apply([]byte(in), testEdit)
	require.NoError(t, err)

	before := gjson.Parse(in)
	after := gjson.ParseBytes(out)

	assert.Equal(t, "https://my-app.github.io", after.Get("homepage").String())
	assert.Equal(t, "npm run build", after.Get("scripts.predeploy").String())
	assert.Equal(t, "gh-pages -d build", after.Get("scripts.deploy").String())
	assert.Equal(t, "react-scripts start", after.Get("scripts.start").String())

	for _, key := range []string{"name", "private", "dependencies", "browserslist", "eslintConfig"} {
		assert.JSONEq(t, before.Get(key).Raw, after.Get(key).Raw, "field %s should round-trip", key)
	}

	var keys []string
	after.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, []string{"name", "private", "dependencies", "browserslist", "eslintConfig", "scripts", "homepage"}, keys,
		"key order should be preserved")
}

func TestApply_Idempotent(t *testing.T) {
	once, err := Apply([]byte(createReactApp), testEdit)
	require.NoError(t, err)
	twice, err := Apply(once, testEdit)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))

	var scriptKeys []string
	gjson.GetBytes(twice, "scripts").ForEach(func(k, _ gjson.Result) bool {
		scriptKeys = append(scriptKeys, k.String())
		return true
	})
	assert.Equal(t, []string{"start", "build", "predeploy", "deploy"}, scriptKeys)
}

func TestApply_CreatesScripts(t *testing.T) {
	out, err := Apply([]byte(`{"name":"bare"}`), testEdit)
	require.NoError(t, err)
	assert.Equal(t, "npm run build", gjson.GetBytes(out, "scripts.predeploy").String())
	assert.Equal(t, "gh-pages -d build", gjson.GetBytes(out, "scripts.deploy").String())
}

func TestApply_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"name": `},
		{"array", `["not", "an", "object"]`},
		{"scripts string", `{"scripts": "npm start"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply([]byte(tt.in), testEdit)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestEditor_Update(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/work/my-app/package.json", []byte(createReactApp), 0600))

	ed := NewEditor(fsys, "/work/my-app/package.json", false)
	res, err := ed.Update(testEdit)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "https://my-app.github.io", res.Homepage)

	data, err := afero.ReadFile(fsys, "/work/my-app/package.json")
	require.NoError(t, err)
	assert.Equal(t, "https://my-app.github.io", gjson.GetBytes(data, "homepage").String())

	info, err := fsys.Stat("/work/my-app/package.json")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0600), info.Mode().Perm(), "permissions should be kept")

	res, err = ed.Update(testEdit)
	require.NoError(t, err)
	assert.False(t, res.Changed, "second run should be a no-op")
}

func TestEditor_DryRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "package.json", []byte(createReactApp), 0644))

	res, err := NewEditor(fsys, "package.json", true).Update(testEdit)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	data, err := afero.ReadFile(fsys, "package.json")
	require.NoError(t, err)
	assert.Equal(t, createReactApp, string(data), "dry-run must not write")
}

func TestEditor_MissingFile(t *testing.T) {
	_, err := NewEditor(afero.NewMemMapFs(), "package.json", false).Update(testEdit)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestEditor_Malformed(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "package.json", []byte("{oops"), 0644))

	_, err := NewEditor(fsys, "package.json", false).Update(testEdit)
	assert.ErrorIs(t, err, ErrInvalidManifest)

	data, err := afero.ReadFile(fsys, "package.json")
	require.NoError(t, err)
	assert.Equal(t, "{oops", string(data))
}

func TestRead(t *testing.T) {
	fsys := afero.NewMemMapFs()
	doc := `{
  "name": "my-app",
  "homepage": "https://my-app.github.io",
  "scripts": {"predeploy": "npm run build", "deploy": "gh-pages -d build"},
  "devDependencies": {"gh-pages": "^6.1.1", "@types/react": "^18.0.0"}
}`
	require.NoError(t, afero.WriteFile(fsys, "package.json", []byte(doc), 0644))

	s, err := Read(fsys, "package.json")
	require.NoError(t, err)
	assert.Equal(t, "my-app", s.Name)
	assert.Equal(t, "https://my-app.github.io", s.Homepage)
	assert.Equal(t, "npm run build", s.Predeploy)
	assert.Equal(t, "gh-pages -d build", s.Deploy)
	assert.True(t, s.HasDevDependency("gh-pages"))
	assert.True(t, s.HasDevDependency("@types/react"))
	assert.False(t, s.HasDevDependency("react"))
}

func TestRead_Malformed(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "package.json", []byte("nope"), 0644))

	_, err := Read(fsys, "package.json")
	assert.ErrorIs(t, err, ErrInvalidManifest)
}
