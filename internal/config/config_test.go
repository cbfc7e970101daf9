package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alpindale/tinyscripts/internal/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default config path at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, driver.DefaultQueryConfig(), cfg.QueryConfig())
	assert.Equal(t, "nvidia_driver.exe", cfg.Driver.DownloadPath)
	assert.Equal(t, []string{"/s", "-noreboot", "-clean"}, cfg.Driver.InstallerArgs)
	assert.Equal(t, 3.0, cfg.Area().RadiusKM)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  timeout: 5s
driver:
  language_code: de-de
  language_id: 9
  whql: false
  family_policy: require
spawn:
  lat: 51.5
  lon: -0.12
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "de-de", cfg.Driver.LanguageCode)
	assert.Equal(t, 9, cfg.QueryConfig().LanguageID)
	assert.False(t, cfg.QueryConfig().WHQL)
	assert.Equal(t, 51.5, cfg.Spawn.Lat)
	// untouched keys keep their defaults
	assert.Equal(t, driver.DefaultSearchURL, cfg.Driver.SearchURL)
	assert.Equal(t, 3.0, cfg.Spawn.RadiusKM)
	assert.Len(t, cfg.MatcherOptions(), 3)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: [unclosed"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("values override defaults", func(t *testing.T) {
		isolate(t)
		t.Setenv("TINYSCRIPTS_LANGUAGE_CODE", "fr-fr")
		t.Setenv("TINYSCRIPTS_WHQL", "false")
		t.Setenv("TINYSCRIPTS_SPAWN_RADIUS_KM", "1.5")
		t.Setenv("TINYSCRIPTS_HTTP_TIMEOUT", "2m")
		t.Setenv("TINYSCRIPTS_LOG_JSON", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "fr-fr", cfg.Driver.LanguageCode)
		assert.False(t, cfg.Driver.WHQL)
		assert.Equal(t, 1.5, cfg.Spawn.RadiusKM)
		assert.True(t, cfg.Logging.JSON)

		d, err := cfg.Timeout()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Minute, d)
	})

	t.Run("unparsable values are errors", func(t *testing.T) {
		isolate(t)
		t.Setenv("TINYSCRIPTS_LANGUAGE_ID", "english")

		_, err := Load("")
		assert.ErrorContains(t, err, "TINYSCRIPTS_LANGUAGE_ID")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.HTTP.Timeout = "-1s"
	cfg.Driver.FamilyPolicy = "nearest"
	cfg.Spawn.Lat = 120
	cfg.Spawn.RadiusKM = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "http.timeout")
	assert.ErrorContains(t, err, "family policy")
	assert.ErrorContains(t, err, "lat 120 out of range")
	assert.ErrorContains(t, err, "radius_km")
}
