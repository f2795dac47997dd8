// Package config manages the process-wide configuration of autodataman.
//
// Configuration is a flat set of string keys and values, persisted as a JSON
// document in the home directory of the user (~/.autodataman).
//
// Reserved keys are: default_local_repo, default_server and timeout.
// Post-download transforms are configured with keys like "<format>_<tag>_command",
// e.g. "tgz_open_command".
//
// Keys are case-insensitive. Values may be overridden by environment variables
// such as AUTODATAMAN_DEFAULT_SERVER.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// KeyDefaultLocalRepo is the path to the default local repository
	KeyDefaultLocalRepo = "default_local_repo"

	// KeyDefaultServer is the base URL of the default server
	KeyDefaultServer = "default_server"

	// KeyTimeout is the timeout applied to HTTP requests
	KeyTimeout = "timeout"

	// EnvConfig is the environment variable to override the location of the config file
	EnvConfig = "AUTODATAMAN_CONFIG"

	// EnvPrefix prefixes environment variables overriding config values
	EnvPrefix = "AUTODATAMAN"

	// FileName of the config file in the home directory
	FileName = ".autodataman"

	configType = "json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidKey indicates a config key with invalid characters
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidConfig indicates a config file which cannot be used
	ErrInvalidConfig = errors.New("invalid config")

	keyRex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Defaults seeded in a new config file
func Defaults() map[string]string {
	return map[string]string{
		CommandKey("tgz", "open"): "tar -xzf",
	}
}

// CommandKey yields the key of the post-download command for a format and tag
func CommandKey(format, tag string) string {
	return format + "_" + tag + "_command"
}

// ValidKey checks the syntax of a config key: a letter or underscore, followed by alphanumerics or underscores
func ValidKey(key string) error {
	if !keyRex.MatchString(key) {
		return ErrInvalidKey.Wrapf("%q", key)
	}
	return nil
}

// Config holds the key/value settings loaded for one invocation.
//
// A Config is not safe for concurrent use by multiple goroutines.
type Config struct {
	v    *viper.Viper
	env  *viper.Viper
	fs   afero.Fs
	path string
}

// New builds an in-memory configuration, not backed by any file
func New(settings map[string]string) *Config {
	c := &Config{
		v:   viper.New(),
		env: newEnv(),
	}
	for k, val := range settings {
		c.v.Set(k, val)
	}
	return c
}

func newEnv() *viper.Viper {
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.AutomaticEnv()
	return env
}

// DefaultPath of the config file: $AUTODATAMAN_CONFIG, or ~/.autodataman
func DefaultPath() (string, error) {
	if pth := os.Getenv(EnvConfig); pth != "" {
		return pth, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrInvalidConfig.Wrap(fmt.Errorf("invalid home directory: %w", err))
	}
	return filepath.Join(home, FileName), nil
}

// Load the config file at some path.
//
// When the file does not exist, it is created with default settings.
func Load(fs afero.Fs, pth string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	c := &Config{
		v:    viper.New(),
		env:  newEnv(),
		fs:   fs,
		path: pth,
	}
	c.v.SetFs(fs)
	c.v.SetConfigFile(pth)
	c.v.SetConfigType(configType)

	exists, err := afero.Exists(fs, pth)
	if err != nil {
		return nil, ErrInvalidConfig.Wrap(err)
	}
	if !exists {
		for k, val := range Defaults() {
			c.v.Set(k, val)
		}
		if err = c.Save(); err != nil {
			return nil, err
		}
		return c, nil
	}

	if err = c.v.ReadInConfig(); err != nil {
		return nil, ErrInvalidConfig.Wrap(fmt.Errorf("reading %s: %w", pth, err))
	}
	for _, key := range c.v.AllKeys() {
		if strings.Contains(key, ".") {
			// nested objects are not part of the format
			return nil, ErrInvalidConfig.Wrapf("malformed key %q in config file %s", key, pth)
		}
		if err = ValidKey(key); err != nil {
			return nil, ErrInvalidConfig.Wrap(fmt.Errorf("in config file %s: %w", pth, err))
		}
	}
	return c, nil
}

// Path of the config file, if any
func (c *Config) Path() string {
	return c.path
}

// Get a config value. Environment variables take precedence over the file.
func (c *Config) Get(key string) (string, bool) {
	if c.env.IsSet(key) {
		return c.env.GetString(key), true
	}
	if !c.v.IsSet(key) {
		return "", false
	}
	return c.v.GetString(key), true
}

// GetString returns a config value, or the empty string
func (c *Config) GetString(key string) string {
	val, _ := c.Get(key)
	return val
}

// Set a config value in memory. Use Save to persist.
func (c *Config) Set(key, value string) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	c.v.Set(key, value)
	return nil
}

// Keys of all settings known from the file or set in memory, sorted
func (c *Config) Keys() []string {
	keys := c.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Settings returns all settings as strings
func (c *Config) Settings() map[string]string {
	settings := make(map[string]string, len(c.v.AllKeys()))
	for _, key := range c.v.AllKeys() {
		settings[key] = c.GetString(key)
	}
	return settings
}

// Save the settings to the config file.
//
// Values overridden by the environment are not persisted.
func (c *Config) Save() error {
	if c.path == "" {
		return ErrInvalidConfig.Wrapf("no config file to save to")
	}
	settings := make(map[string]string, len(c.v.AllKeys()))
	for _, key := range c.v.AllKeys() {
		settings[key] = c.v.GetString(key)
	}
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return ErrInvalidConfig.Wrap(err)
	}
	if err = afero.WriteFile(c.fs, c.path, data, 0600); err != nil {
		return ErrInvalidConfig.Wrap(fmt.Errorf("writing %s: %w", c.path, err))
	}
	return nil
}

// Command returns the post-download command template for a format and tag, if any
func (c *Config) Command(format, tag string) (string, bool) {
	cmd, ok := c.Get(CommandKey(format, tag))
	if !ok || strings.TrimSpace(cmd) == "" {
		return "", false
	}
	return cmd, true
}

// DefaultLocalRepo configured, if any
func (c *Config) DefaultLocalRepo() string {
	return c.GetString(KeyDefaultLocalRepo)
}

// DefaultServer configured, if any
func (c *Config) DefaultServer() string {
	return c.GetString(KeyDefaultServer)
}

// Timeout configured for HTTP requests. Zero means the transport default.
//
// Values are durations such as "30s", or an integer number of seconds.
func (c *Config) Timeout() (time.Duration, error) {
	return ParseTimeout(c.GetString(KeyTimeout))
}

// ParseTimeout parses a timeout value: a duration such as "30s", or an integer number of seconds
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, ErrInvalidConfig.Wrapf("invalid timeout %q", value)
	}
	return d, nil
}
