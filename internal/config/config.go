package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alpindale/tinyscripts/internal/driver"
	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/alpindale/tinyscripts/internal/species"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TINYSCRIPTS_"

// Config holds the settings of both tools. Precedence: defaults, YAML file,
// TINYSCRIPTS_* environment, then command-line flags.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Driver  DriverConfig  `yaml:"driver"`
	Species SpeciesConfig `yaml:"species"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Logging LoggingConfig `yaml:"logging"`
}

type HTTPConfig struct {
	Timeout string `yaml:"timeout"` // Go duration, "30s"
}

type DriverConfig struct {
	LookupURL      string   `yaml:"lookup_url"`
	SearchURL      string   `yaml:"search_url"`
	LanguageCode   string   `yaml:"language_code"`
	LanguageID     int      `yaml:"language_id"`
	WHQL           bool     `yaml:"whql"`
	BrandToken     string   `yaml:"brand_token"`
	SeriesFallback string   `yaml:"series_fallback"`
	FamilyPolicy   string   `yaml:"family_policy"` // "first" or "require"
	DownloadPath   string   `yaml:"download_path"`
	InstallerArgs  []string `yaml:"installer_args"`
}

type SpeciesConfig struct {
	ListURL string `yaml:"list_url"`
	Limit   int    `yaml:"limit"`
}

type SpawnConfig struct {
	URL      string  `yaml:"url"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	RadiusKM float64 `yaml:"radius_km"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Timeout: "30s"},
		Driver: DriverConfig{
			LookupURL:      driver.DefaultLookupURL,
			SearchURL:      driver.DefaultSearchURL,
			LanguageCode:   driver.DefaultLanguageCode,
			LanguageID:     driver.DefaultLanguageID,
			WHQL:           true,
			BrandToken:     driver.DefaultBrandToken,
			SeriesFallback: driver.DefaultSeriesFallback,
			FamilyPolicy:   driver.DefaultToFirstFamily.String(),
			DownloadPath:   driver.DefaultDownloadPath,
			InstallerArgs:  append([]string(nil), driver.DefaultInstallerArgs...),
		},
		Species: SpeciesConfig{
			ListURL: species.DefaultListURL,
			Limit:   species.DefaultLimit,
		},
		Spawn: SpawnConfig{
			URL:      spawn.DefaultURL,
			Lat:      spawn.DefaultLat,
			Lon:      spawn.DefaultLon,
			RadiusKM: spawn.DefaultRadiusKM,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/tinyscripts/config.yaml or the OS equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tinyscripts", "config.yaml")
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	setString("HTTP_TIMEOUT", &c.HTTP.Timeout)
	setString("LOOKUP_URL", &c.Driver.LookupURL)
	setString("SEARCH_URL", &c.Driver.SearchURL)
	setString("LANGUAGE_CODE", &c.Driver.LanguageCode)
	setString("FAMILY_POLICY", &c.Driver.FamilyPolicy)
	setString("DOWNLOAD_PATH", &c.Driver.DownloadPath)
	setString("SPECIES_URL", &c.Species.ListURL)
	setString("SPAWN_URL", &c.Spawn.URL)
	setString("LOG_LEVEL", &c.Logging.Level)

	var errs []error
	if v := os.Getenv(envPrefix + "LANGUAGE_ID"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("LANGUAGE_ID", err))
		if err == nil {
			c.Driver.LanguageID = n
		}
	}
	for key, dst := range map[string]*bool{"WHQL": &c.Driver.WHQL, "LOG_JSON": &c.Logging.JSON} {
		if v := os.Getenv(envPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			errs = append(errs, envErr(key, err))
			if err == nil {
				*dst = b
			}
		}
	}
	for key, dst := range map[string]*float64{"SPAWN_LAT": &c.Spawn.Lat, "SPAWN_LON": &c.Spawn.Lon, "SPAWN_RADIUS_KM": &c.Spawn.RadiusKM} {
		if v := os.Getenv(envPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			errs = append(errs, envErr(key, err))
			if err == nil {
				*dst = f
			}
		}
	}
	return errors.Join(errs...)
}

func envErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s%s: %w", envPrefix, key, err)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := driver.ParseFamilyPolicy(c.Driver.FamilyPolicy); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Driver.DownloadPath) == "" {
		errs = append(errs, errors.New("driver.download_path is empty"))
	}
	if err := c.Area().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spawn: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("http.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("http.timeout must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) QueryConfig() driver.QueryConfig {
	return driver.QueryConfig{
		LookupURL:    c.Driver.LookupURL,
		SearchURL:    c.Driver.SearchURL,
		LanguageCode: c.Driver.LanguageCode,
		LanguageID:   c.Driver.LanguageID,
		WHQL:         c.Driver.WHQL,
	}
}

// MatcherOptions assumes Validate has passed.
func (c *Config) MatcherOptions() []driver.MatcherOption {
	policy, _ := driver.ParseFamilyPolicy(c.Driver.FamilyPolicy)
	return []driver.MatcherOption{
		driver.WithBrandToken(c.Driver.BrandToken),
		driver.WithSeriesFallback(c.Driver.SeriesFallback),
		driver.WithFamilyPolicy(policy),
	}
}

func (c *Config) Area() spawn.Area {
	return spawn.Area{Lat: c.Spawn.Lat, Lon: c.Spawn.Lon, RadiusKM: c.Spawn.RadiusKM}
}
