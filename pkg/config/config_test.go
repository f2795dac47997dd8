package config

import (
	"os"
	"testing"
	"time"

	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "/home/user/.autodataman"

func TestLoadCreatesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/user", 0755))

	c, err := Load(fs, testPath)
	require.NoError(t, err)
	assert.Equal(t, testPath, c.Path())

	cmd, ok := c.Command("tgz", "open")
	require.True(t, ok)
	assert.Equal(t, "tar -xzf", cmd)

	exists, err := afero.Exists(fs, testPath)
	require.NoError(t, err)
	require.True(t, exists)

	data, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tgz_open_command": "tar -xzf"}`, string(data))
}

func TestLoadExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte(`{
	"default_local_repo": "/data/adm",
	"default_server": "http://data.example.com/adm",
	"timeout": "30s",
	"netcdf_convert_command": "nccopy -k nc4"
	}`), 0644))

	c, err := Load(fs, testPath)
	require.NoError(t, err)
	assert.Equal(t, "/data/adm", c.DefaultLocalRepo())
	assert.Equal(t, "http://data.example.com/adm", c.DefaultServer())
	timeout, err := c.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)

	// keys are case-insensitive
	cmd, ok := c.Command("netCDF", "convert")
	require.True(t, ok)
	assert.Equal(t, "nccopy -k nc4", cmd)

	_, ok = c.Command("tgz", "open")
	assert.False(t, ok)

	assert.Equal(t, []string{"default_local_repo", "default_server", "netcdf_convert_command", "timeout"}, c.Keys())
	assert.Len(t, c.Settings(), 4)
	require.NoError(t, c.Validate())
}

func TestLoadInvalid(t *testing.T) {
	for _, toPin := range []struct {
		name    string
		content string
	}{
		{name: "not json", content: `tgz_open_command = "tar -xzf"`},
		{name: "bad key", content: `{"1st_command": "x"}`},
		{name: "nested", content: `{"server": {"url": "x"}}`},
	} {
		testCase := toPin
		t.Run(testCase.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, testPath, []byte(testCase.content), 0644))
			_, err := Load(fs, testPath)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestSetAndSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/user", 0755))
	c, err := Load(fs, testPath)
	require.NoError(t, err)

	require.NoError(t, c.Set(KeyDefaultServer, "https://data.example.com"))
	require.NoError(t, c.Set("_private", "x"))

	err = c.Set("bad-key", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKey))

	require.NoError(t, c.Save())

	reloaded, err := Load(fs, testPath)
	require.NoError(t, err)
	assert.Equal(t, "https://data.example.com", reloaded.DefaultServer())
	assert.Equal(t, "x", reloaded.GetString("_private"))
	assert.Equal(t, "tar -xzf", reloaded.GetString("tgz_open_command"))
}

func TestEnvOverride(t *testing.T) {
	c := New(map[string]string{KeyDefaultServer: "http://from-file"})
	assert.Equal(t, "http://from-file", c.DefaultServer())

	require.NoError(t, os.Setenv("AUTODATAMAN_DEFAULT_SERVER", "http://from-env"))
	defer func() { _ = os.Unsetenv("AUTODATAMAN_DEFAULT_SERVER") }()
	assert.Equal(t, "http://from-env", c.DefaultServer())
}

func TestInMemory(t *testing.T) {
	c := New(nil)
	_, ok := c.Get(KeyDefaultLocalRepo)
	assert.False(t, ok)
	assert.Empty(t, c.DefaultLocalRepo())

	err := c.Save()
	require.Error(t, err)

	// blank commands count as absent
	c = New(map[string]string{"tgz_open_command": "  "})
	_, ok = c.Command("tgz", "open")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	for _, toPin := range []struct {
		name     string
		settings map[string]string
		valid    bool
	}{
		{name: "defaults", settings: Defaults(), valid: true},
		{name: "good server", settings: map[string]string{KeyDefaultServer: "https://example.com/adm"}, valid: true},
		{name: "bucket", settings: map[string]string{KeyDefaultServer: "s3://climate-catalogs"}},
		{name: "ftp server", settings: map[string]string{KeyDefaultServer: "ftp://example.com/adm"}},
		{name: "no url", settings: map[string]string{KeyDefaultServer: "not a url"}},
		{name: "good timeout", settings: map[string]string{KeyTimeout: "15"}, valid: true},
		{name: "bad timeout", settings: map[string]string{KeyTimeout: "soon"}},
		{name: "negative timeout", settings: map[string]string{KeyTimeout: "-1s"}},
	} {
		testCase := toPin
		t.Run(testCase.name, func(t *testing.T) {
			err := New(testCase.settings).Validate()
			if testCase.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseTimeout("45")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = ParseTimeout("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseTimeout("x")
	require.Error(t, err)
}

func TestValidateLocalRepo(t *testing.T) {
	require.Error(t, ValidateLocalRepo(""))
	require.Error(t, ValidateLocalRepo("a"))
	require.NoError(t, ValidateLocalRepo("/a"))
}

func TestDefaultPath(t *testing.T) {
	require.NoError(t, os.Setenv(EnvConfig, "/tmp/adm.json"))
	pth, err := DefaultPath()
	require.NoError(t, os.Unsetenv(EnvConfig))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/adm.json", pth)

	pth, err = DefaultPath()
	require.NoError(t, err)
	assert.Contains(t, pth, FileName)
}
