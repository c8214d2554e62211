package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "askdb.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "askdb.yml"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// findConfigFileIn returns the config file in dir, or "".
func findConfigFileIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFileUpward searches upward from startDir for an askdb config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigFileUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path := findConfigFileIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration with an optional target override.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// The target parameter selects an entry from the targets map to merge over
// the base database settings.
func Load(cfgFile, target string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database.driver":         DefaultDriver,
		"llm.provider":            DefaultLLMProvider,
		"agent.max_attempts":      DefaultMaxAttempts,
		"agent.statement_timeout": DefaultStatementTimeout,
		"agent.row_limit":         DefaultRowLimit,
		"agent.sample_rows":       DefaultSampleRows,
		"output":                  DefaultOutput,
		"verbose":                 false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed := cfgFile
	if configFileUsed == "" {
		if cwd, err := os.Getwd(); err == nil {
			configFileUsed = findConfigFileUpward(cwd)
		}
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (ASKDB_ prefix)
	// A double underscore nests: ASKDB_DATABASE__PASSWORD -> database.password,
	// ASKDB_AGENT__MAX_ATTEMPTS -> agent.max_attempts
	if err := k.Load(env.Provider("ASKDB_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "ASKDB_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeyMap[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = configFileUsed

	// 6. Apply the named target over the base database settings
	if target != "" {
		override, ok := cfg.Targets[target]
		if !ok {
			return nil, fmt.Errorf("unknown target %q (available: %s)", target, strings.Join(targetNames(cfg.Targets), ", "))
		}
		cfg.Database = *MergeDatabaseConfig(&cfg.Database, override)
	}

	// 7. Driver-dependent defaults and credential expansion
	ApplyTargetDefaults(&cfg.Database)
	expandDatabaseEnvVars(&cfg.Database)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKeyMap bridges CLI flag names to config keys.
var flagKeyMap = map[string]string{
	"output":       "output",
	"verbose":      "verbose",
	"max-attempts": "agent.max_attempts",
	"timeout":      "agent.statement_timeout",
	"limit":        "agent.row_limit",
	"hints":        "hints_file",
}

func targetNames(targets map[string]*DatabaseConfig) []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	return names
}

// envVarRe matches ${VAR} patterns.
var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandDatabaseEnvVars expands environment variables in sensitive fields.
func expandDatabaseEnvVars(d *DatabaseConfig) {
	if d == nil {
		return
	}
	d.Password = expandEnvVars(d.Password)
	d.Username = expandEnvVars(d.Username)
	d.Host = expandEnvVars(d.Host)
	d.Database = expandEnvVars(d.Database)
}

// MergeDatabaseConfig merges two targets, with override taking precedence.
func MergeDatabaseConfig(base, override *DatabaseConfig) *DatabaseConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string)
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	if override.Driver != "" {
		merged.Driver = override.Driver
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Username != "" {
		merged.Username = override.Username
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}

	return &merged
}
