package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
	"github.com/artpar/stackgate/internal/core/firewall"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration. It is loaded once at startup
// and passed by reference into the collaborators; nothing mutates it during
// a run.
type Config struct {
	Log      LogConfig       `mapstructure:"log"`
	Docker   DockerConfig    `mapstructure:"docker"`
	Firewall FirewallConfig  `mapstructure:"firewall"`
	Ignore   IgnoreConfig    `mapstructure:"ignore"`
	Projects []ProjectConfig `mapstructure:"projects"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DockerConfig holds Docker runtime configuration.
type DockerConfig struct {
	// Host overrides the daemon address; empty uses the environment default.
	Host string `mapstructure:"host"`

	// CommandTimeout bounds every external call (daemon, compose CLI,
	// policy query). A hung call is cancelled at this deadline.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`

	// Networks are bridge networks ensured to exist before any pass runs.
	Networks []string `mapstructure:"networks"`

	// PruneImages controls the unused-image prune between down and up.
	PruneImages bool `mapstructure:"prune_images"`
}

// FirewallConfig holds the policy gate configuration.
type FirewallConfig struct {
	RequiredPorts        []int  `mapstructure:"required_ports"`
	EnforceActiveProfile bool   `mapstructure:"enforce_active_profile"`
	EnforceBackendRules  bool   `mapstructure:"enforce_backend_rules"`
	EnforcePorts         bool   `mapstructure:"enforce_ports"`
	BackendCoverage      string `mapstructure:"backend_coverage"`
}

// CheckFlags maps the enforcement switches onto the evaluator's flags.
func (c FirewallConfig) CheckFlags() firewall.CheckFlags {
	return firewall.CheckFlags{
		ActiveProfile: c.EnforceActiveProfile,
		BackendRules:  c.EnforceBackendRules,
		Ports:         c.EnforcePorts,
	}
}

// Coverage returns the configured backend coverage strictness.
func (c FirewallConfig) Coverage() firewall.Coverage {
	return firewall.Coverage(c.BackendCoverage)
}

// IgnoreConfig holds the per-direction service ignore lists.
type IgnoreConfig struct {
	Up   []string `mapstructure:"up"`
	Down []string `mapstructure:"down"`
}

// ProjectConfig describes one compose project to manage.
type ProjectConfig struct {
	Name        string `mapstructure:"name"`
	Dir         string `mapstructure:"dir"`
	ComposeFile string `mapstructure:"compose_file"`
	EnvFile     string `mapstructure:"env_file"`
}

// CatalogProjects converts the configured projects into catalog descriptors.
func (c *Config) CatalogProjects() []catalog.Project {
	projects := make([]catalog.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		projects = append(projects, catalog.Project{
			Name:        p.Name,
			Dir:         p.Dir,
			ComposeFile: p.ComposeFile,
			EnvFile:     p.EnvFile,
		})
	}
	return projects
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("docker.host", "")
	v.SetDefault("docker.command_timeout", "5m")
	v.SetDefault("docker.networks", []string{})
	v.SetDefault("docker.prune_images", true)
	v.SetDefault("firewall.required_ports", []int{})
	v.SetDefault("firewall.enforce_active_profile", false)
	v.SetDefault("firewall.enforce_backend_rules", false)
	v.SetDefault("firewall.enforce_ports", false)
	v.SetDefault("firewall.backend_coverage", string(firewall.CoverageAny))
	v.SetDefault("ignore.up", []string{})
	v.SetDefault("ignore.down", []string{})

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("STACKGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch firewall.Coverage(cfg.Firewall.BackendCoverage) {
	case firewall.CoverageAny, firewall.CoverageAll:
	default:
		return nil, fmt.Errorf("firewall.backend_coverage must be %q or %q, got %q",
			firewall.CoverageAny, firewall.CoverageAll, cfg.Firewall.BackendCoverage)
	}

	for i, p := range cfg.Projects {
		if p.Dir == "" || p.ComposeFile == "" {
			return nil, fmt.Errorf("projects[%d]: dir and compose_file are required", i)
		}
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
