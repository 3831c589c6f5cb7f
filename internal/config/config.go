// Package config handles citeflow configuration: defaults, the global YAML
// file and CITE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration. Values are layered from defaults, the
// config file and CITE_* environment variables, in increasing priority.
type Config struct {
	DBPath         string        `mapstructure:"db_path" yaml:"db_path,omitempty"`
	CrossRefMailto string        `mapstructure:"crossref_mailto" yaml:"crossref_mailto,omitempty"`
	NCBIAPIKey     string        `mapstructure:"ncbi_api_key" yaml:"ncbi_api_key,omitempty"`
	WorldCatWSKey  string        `mapstructure:"worldcat_wskey" yaml:"worldcat_wskey,omitempty"`
	ISBNdbAPIKey   string        `mapstructure:"isbndb_api_key" yaml:"isbndb_api_key,omitempty"`
	S2APIKey       string        `mapstructure:"s2_api_key" yaml:"s2_api_key,omitempty"`
	LookupTimeout  time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout,omitempty"`
	MaxConcurrency int           `mapstructure:"max_concurrency" yaml:"max_concurrency,omitempty"`
	Services       []string      `mapstructure:"services" yaml:"services,omitempty"`
}

const (
	// AppDir is the directory name under the XDG config and data homes.
	AppDir = "cite"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DBFile is the default database file name.
	DBFile = "citations.db"
	// EnvPrefix prefixes environment overrides, e.g. CITE_NCBI_API_KEY.
	EnvPrefix = "CITE"

	DefaultLookupTimeout  = 20 * time.Second
	DefaultMaxConcurrency = 8
)

// Keys lists the configuration keys accepted by Get and Set.
var Keys = []string{
	"db_path", "crossref_mailto", "ncbi_api_key", "worldcat_wskey",
	"isbndb_api_key", "s2_api_key", "lookup_timeout", "max_concurrency", "services",
}

// ErrUnknownKey is returned by Get and Set for keys not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/cite/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, ConfigFile)
}

// DefaultDBPath returns the database path used when db_path is unset.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/cite/citations.db.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DBFile
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppDir, DBFile)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("crossref_mailto", "")
	v.SetDefault("ncbi_api_key", "")
	v.SetDefault("worldcat_wskey", "")
	v.SetDefault("isbndb_api_key", "")
	v.SetDefault("s2_api_key", "")
	v.SetDefault("lookup_timeout", DefaultLookupTimeout)
	v.SetDefault("max_concurrency", DefaultMaxConcurrency)
	v.SetDefault("services", []string{})
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the file at path, if it exists, and the
// environment. An empty path means Path().
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DBPath = ExpandPath(cfg.DBPath)
	cfg.Services = splitList(strings.Join(cfg.Services, ","))
	return &cfg, nil
}

// LoadFile reads only the config file at path, without defaults or
// environment overrides. A missing file yields an empty Config.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ServiceEnabled reports whether the lookup service with the given filter id
// is enabled. An empty service list enables every service.
func (c *Config) ServiceEnabled(id string) bool {
	return len(c.Services) == 0 || slices.Contains(c.Services, id)
}

// Get returns the value of key formatted as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "crossref_mailto":
		return c.CrossRefMailto, nil
	case "ncbi_api_key":
		return c.NCBIAPIKey, nil
	case "worldcat_wskey":
		return c.WorldCatWSKey, nil
	case "isbndb_api_key":
		return c.ISBNdbAPIKey, nil
	case "s2_api_key":
		return c.S2APIKey, nil
	case "lookup_timeout":
		return c.LookupTimeout.String(), nil
	case "max_concurrency":
		return strconv.Itoa(c.MaxConcurrency), nil
	case "services":
		return strings.Join(c.Services, ","), nil
	}
	return "", fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
}

// Set parses value and assigns it to key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "db_path":
		c.DBPath = ExpandPath(value)
	case "crossref_mailto":
		c.CrossRefMailto = value
	case "ncbi_api_key":
		c.NCBIAPIKey = value
	case "worldcat_wskey":
		c.WorldCatWSKey = value
	case "isbndb_api_key":
		c.ISBNdbAPIKey = value
	case "s2_api_key":
		c.S2APIKey = value
	case "lookup_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid lookup_timeout %q: want a positive duration like 20s", value)
		}
		c.LookupTimeout = d
	case "max_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_concurrency %q: want a positive integer", value)
		}
		c.MaxConcurrency = n
	case "services":
		c.Services = splitList(value)
	default:
		return fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
