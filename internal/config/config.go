package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

const ConfigFile = "todograph.toml"

// EnvPrefix prefixes every environment variable that overrides a config value.
const EnvPrefix = "TODOGRAPH_"

// DefaultUpstream is the public placeholder API the graph is built on.
const DefaultUpstream = "https://jsonplaceholder.typicode.com"

// Relation modes select how Todo.user and User.todo are joined.
const (
	// RelationsForeignKey joins todos to users on the upstream userId field.
	RelationsForeignKey = "foreign-key"
	// RelationsLegacy joins on the entity's own id, so /users/{todo.id} and /todos/{user.id}.
	RelationsLegacy = "legacy"
)

// Config holds the todograph configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Graph    GraphConfig    `toml:"graph"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Port        int      `toml:"port"`
	Path        string   `toml:"path"`
	CORSOrigins []string `toml:"cors_origins"`
	Playground  *bool    `toml:"playground,omitempty"`
}

// UpstreamConfig defines the REST API being wrapped.
type UpstreamConfig struct {
	BaseURL string `toml:"base_url"`
	// Timeout is a Go duration string. Empty means no timeout.
	Timeout string `toml:"timeout,omitempty"`
}

// GraphConfig defines execution settings.
type GraphConfig struct {
	Relations      string `toml:"relations"`
	MaxParallelism int    `toml:"max_parallelism"`
}

// LogConfig defines logger output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	playground := true
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Path:        "/graphql",
			CORSOrigins: []string{"*"},
			Playground:  &playground,
		},
		Upstream: UpstreamConfig{
			BaseURL: DefaultUpstream,
		},
		Graph: GraphConfig{
			Relations:      RelationsForeignKey,
			MaxParallelism: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given file path.
// An empty path looks for todograph.toml in the working directory.
// Returns default config if the file doesn't exist. Environment
// overrides (including a .env file, if present) are applied on top.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigFile
	}

	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		var fileCfg Config
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg = merge(cfg, &fileCfg)
	case os.IsNotExist(err) && !explicit:
		// defaults
	default:
		return nil, err
	}

	// A missing .env is fine; any other problem with it is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays the non-zero values of file onto base.
func merge(base, file *Config) *Config {
	if file.Server.Port != 0 {
		base.Server.Port = file.Server.Port
	}
	if file.Server.Path != "" {
		base.Server.Path = file.Server.Path
	}
	if len(file.Server.CORSOrigins) > 0 {
		base.Server.CORSOrigins = file.Server.CORSOrigins
	}
	if file.Server.Playground != nil {
		base.Server.Playground = file.Server.Playground
	}
	if file.Upstream.BaseURL != "" {
		base.Upstream.BaseURL = file.Upstream.BaseURL
	}
	if file.Upstream.Timeout != "" {
		base.Upstream.Timeout = file.Upstream.Timeout
	}
	if file.Graph.Relations != "" {
		base.Graph.Relations = file.Graph.Relations
	}
	if file.Graph.MaxParallelism != 0 {
		base.Graph.MaxParallelism = file.Graph.MaxParallelism
	}
	if file.Log.Level != "" {
		base.Log.Level = file.Log.Level
	}
	if file.Log.Format != "" {
		base.Log.Format = file.Log.Format
	}
	if file.Log.File != "" {
		base.Log.File = file.Log.File
	}
	return base
}

// ApplyEnv applies TODOGRAPH_* overrides using the given lookup function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("PORT"); ok {
		port, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v, ok := get("PATH"); ok {
		c.Server.Path = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = cast.ToStringSlice(strings.ReplaceAll(v, ",", " "))
	}
	if v, ok := get("PLAYGROUND"); ok {
		enabled, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%sPLAYGROUND: %w", EnvPrefix, err)
		}
		c.Server.Playground = &enabled
	}
	if v, ok := get("UPSTREAM_URL"); ok {
		c.Upstream.BaseURL = v
	}
	if v, ok := get("UPSTREAM_TIMEOUT"); ok {
		c.Upstream.Timeout = v
	}
	if v, ok := get("RELATIONS"); ok {
		c.Graph.Relations = v
	}
	if v, ok := get("MAX_PARALLELISM"); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%sMAX_PARALLELISM: %w", EnvPrefix, err)
		}
		c.Graph.MaxParallelism = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.Log.File = v
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path %q must start with /", c.Server.Path)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if _, err := c.UpstreamTimeout(); err != nil {
		return err
	}
	if !IsValidRelations(c.Graph.Relations) {
		return fmt.Errorf("graph.relations %q is not one of %s", c.Graph.Relations, strings.Join(RelationModes(), ", "))
	}
	if c.Graph.MaxParallelism < 1 {
		return fmt.Errorf("graph.max_parallelism must be at least 1")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}

// Save writes the configuration to the given path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// UpstreamTimeout parses the upstream timeout. Zero means none.
func (c *Config) UpstreamTimeout() (time.Duration, error) {
	if c.Upstream.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil {
		return 0, fmt.Errorf("upstream.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("upstream.timeout must not be negative")
	}
	return d, nil
}

// PlaygroundEnabled reports whether GET requests on the GraphQL path serve the playground.
func (c *Config) PlaygroundEnabled() bool {
	return c.Server.Playground == nil || *c.Server.Playground
}

// Addr returns the listen address for the server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// RelationModes returns the supported relation modes.
func RelationModes() []string {
	return []string{RelationsForeignKey, RelationsLegacy}
}

// IsValidRelations returns true if mode is a supported relation mode.
func IsValidRelations(mode string) bool {
	for _, m := range RelationModes() {
		if m == mode {
			return true
		}
	}
	return false
}
