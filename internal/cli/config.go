package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Config represents the strata configuration from strata.yaml.
type Config struct {
	// Dialect selects the SQL dialect: postgres, mysql, or sqlite.
	Dialect string `mapstructure:"dialect"`

	// AllowDestructive renders destructive operations as executable SQL
	// instead of warning comments.
	AllowDestructive bool `mapstructure:"allow_destructive"`

	// MultiTenant enables automatic tenant-isolation predicates.
	MultiTenant bool `mapstructure:"multi_tenant"`

	// UseSchemas qualifies table names with SchemaName.
	UseSchemas bool   `mapstructure:"use_schemas"`
	SchemaName string `mapstructure:"schema_name"`

	// Snapshot holds the model snapshot paths the differ compares.
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// Migrations is the output directory for rendered migration documents.
	Migrations string `mapstructure:"migrations"`

	Database DatabaseConfig `mapstructure:"database"`
}

// SnapshotConfig holds the differ's input paths.
type SnapshotConfig struct {
	// Current is the snapshot produced by the DSL toolchain.
	Current string `mapstructure:"current"`

	// Previous is the last applied snapshot; missing means first migration.
	Previous string `mapstructure:"previous"`
}

// DatabaseConfig holds database connection settings for strata migrate.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// SchemaPrefix returns the schema name to qualify tables with, or "" when
// schema qualification is off.
func (c *Config) SchemaPrefix() string {
	if !c.UseSchemas {
		return ""
	}
	return c.SchemaName
}

// DSN returns the database connection string.
func (c *Config) DSN() (string, error) {
	if c.Database.URL == "" {
		return "", fmt.Errorf("database.url is required (set it in strata.yaml or STRATA_DATABASE_URL)")
	}
	return c.Database.URL, nil
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none
// found), and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "postgres")
	v.SetDefault("allow_destructive", false)
	v.SetDefault("multi_tenant", false)
	v.SetDefault("use_schemas", false)
	v.SetDefault("schema_name", "")

	v.SetDefault("snapshot.current", "strata/models.yaml")
	v.SetDefault("snapshot.previous", "strata/models.lock.yaml")
	v.SetDefault("migrations", "strata/migrations")

	v.SetDefault("database.url", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for strata.yaml or strata.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"strata.yaml", "strata.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}
