// Package config handles CLI parsing, TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"

	"agent-gateway/internal/cors"
)

var configSearchPaths = []string{
	"/etc/agent-gateway/config.toml",
	"configs/config.toml",
}

// reservedRoutes may not be shadowed by the metrics endpoint.
var reservedRoutes = []string{"/agent", "/boot", "/identifiers", "/healthz", "/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config      string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host        string           `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port        int              `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	Name        string           `kong:"short='n',help='Agent name (overrides config).',env='AGENT_NAME'"`
	AgentURL    string           `kong:"name='agent-url',help='Agent backend base URL (overrides config).',env='AGENT_URL'"`
	CORSOrigins string           `kong:"name='cors-origins',help='Allowed CORS origins: true|1 allow all, false|0 deny all, otherwise a regular expression (overrides config).',env='CORS_ORIGINS'"`
	LogLevel    string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	Debug       bool             `kong:"help='Enable debug logging (same as --log-level=debug).'"`
	Version     kong.VersionFlag `kong:"short='V',help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	CORS    CORSConfig    `toml:"cors"`
	Agent   AgentConfig   `toml:"agent"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means default (3902)
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CORSConfig holds the origin policy string. An empty value allows every
// origin, so leaving the section out keeps CORS open.
type CORSConfig struct {
	Origins string `toml:"origins"`
}

// Policy parses Origins into a cors.Policy.
func (c CORSConfig) Policy() (cors.Policy, error) {
	return cors.ParsePolicy(c.Origins)
}

// AgentConfig describes the agent backend the gateway fronts.
type AgentConfig struct {
	Name            string `toml:"name"`
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file, applies CLI overrides, validates and
// fills defaults. Without --config it tries each of configSearchPaths.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfigInPaths(configSearchPaths)
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.Name != "" {
		c.Agent.Name = cli.Name
	}
	if cli.AgentURL != "" {
		c.Agent.BaseURL = cli.AgentURL
	}
	if cli.CORSOrigins != "" {
		c.CORS.Origins = cli.CORSOrigins
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.Debug {
		c.Log.Level = "debug"
	}
}

func (c *Config) validate() error {
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url is required")
	}
	u, err := url.Parse(c.Agent.BaseURL)
	if err != nil {
		return fmt.Errorf("agent.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("agent.base_url must use http or https; got %q", c.Agent.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("agent.base_url has no host; got %q", c.Agent.BaseURL)
	}

	// A bad origin pattern must stop startup rather than fail per request.
	if _, err := c.CORS.Policy(); err != nil {
		return fmt.Errorf("cors.origins: %w", err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0-65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Agent.TimeoutSeconds < 0 {
		return fmt.Errorf("agent.timeout_seconds must be non-negative; got %d", c.Agent.TimeoutSeconds)
	}
	if c.Agent.IdleConnections < 0 {
		return fmt.Errorf("agent.idle_connections must be non-negative; got %d", c.Agent.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields. TOML cannot tell an explicit 0 from
// an omitted key, so port = 0 means the default port.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3902
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024
	}
	if c.Agent.Name == "" {
		c.Agent.Name = "keria"
	}
	if c.Agent.TimeoutSeconds == 0 {
		c.Agent.TimeoutSeconds = 30
	}
	if c.Agent.IdleConnections == 0 {
		c.Agent.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
