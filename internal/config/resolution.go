package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Source names where a resolved value came from.
type Source string

const (
	SourceCLI     Source = "cli"
	SourceEnv     Source = "env"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// ResolvedConfig holds the final configuration after applying all priority rules.
type ResolvedConfig struct {
	ScriptsRoot  string
	GitHubOwner  string
	GitHubToken  string
	GitHubAPI    string
	Interpreter  string
	PollInterval time.Duration
	TempDir      string
	HistoryPath  string
	LogLevel     logrus.Level
	NoColor      bool

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string
	// Sources records where each field's value came from, keyed by field name.
	Sources map[string]Source
}

// ResolveConfig resolves configuration from all sources with explicit
// priority order: CLI > env > file > default.
func ResolveConfig(flags CliFlags, log logrus.FieldLogger) (*ResolvedConfig, error) {
	appCfg, path := LoadConfig(log)
	return resolve(flags, appCfg, path)
}

func resolve(flags CliFlags, appCfg *AppConfig, path string) (*ResolvedConfig, error) {
	r := &resolver{sources: make(map[string]Source)}
	resolved := &ResolvedConfig{ConfigFile: path, Sources: r.sources}

	resolved.ScriptsRoot = r.str("ScriptsRoot", flags.ScriptsRoot, flags.ScriptsRootSet,
		[]string{"SCRIPTDECK_SCRIPTS_ROOT"}, appCfg.ScriptsRoot, DefaultScriptsRoot)
	resolved.GitHubOwner = r.str("GitHubOwner", flags.Owner, flags.OwnerSet,
		[]string{"SCRIPTDECK_GITHUB_OWNER"}, appCfg.GitHubOwner, DefaultGitHubOwner)
	resolved.GitHubToken = r.str("GitHubToken", "", false,
		[]string{"SCRIPTDECK_GITHUB_TOKEN", "GITHUB_TOKEN"}, appCfg.GitHubToken, "")
	resolved.GitHubAPI = r.str("GitHubAPI", "", false,
		[]string{"SCRIPTDECK_GITHUB_API"}, appCfg.GitHubAPI, "")
	resolved.Interpreter = r.str("Interpreter", flags.Interpreter, flags.InterpreterSet,
		[]string{"SCRIPTDECK_INTERPRETER"}, appCfg.Interpreter, DefaultInterpreter)
	resolved.TempDir = r.str("TempDir", "", false,
		[]string{"SCRIPTDECK_TEMP_DIR"}, appCfg.TempDir, os.TempDir())
	resolved.HistoryPath = r.str("HistoryPath", "", false,
		[]string{"SCRIPTDECK_HISTORY"}, appCfg.HistoryPath, defaultHistoryPath())

	levelName := r.str("LogLevel", flags.LogLevel, flags.LogLevelSet,
		[]string{"SCRIPTDECK_LOG_LEVEL"}, appCfg.LogLevel, DefaultLogLevel)
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: log level: %w", err)
	}
	resolved.LogLevel = level

	interval, err := r.duration("PollInterval", "SCRIPTDECK_POLL_INTERVAL", appCfg.PollInterval, DefaultPollInterval)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	resolved.PollInterval = interval

	switch {
	case flags.NoColorSet:
		resolved.NoColor = flags.NoColor
		r.sources["NoColor"] = SourceCLI
	case getEnvBool("SCRIPTDECK_NO_COLOR", "NO_COLOR") != nil:
		resolved.NoColor = *getEnvBool("SCRIPTDECK_NO_COLOR", "NO_COLOR")
		r.sources["NoColor"] = SourceEnv
	case appCfg.NoColor != nil:
		resolved.NoColor = *appCfg.NoColor
		r.sources["NoColor"] = SourceFile
	default:
		r.sources["NoColor"] = SourceDefault
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

type resolver struct {
	sources map[string]Source
}

func (r *resolver) str(field, cli string, cliSet bool, envKeys []string, file, def string) string {
	if cliSet {
		r.sources[field] = SourceCLI
		return cli
	}
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			r.sources[field] = SourceEnv
			return v
		}
	}
	if file != "" {
		r.sources[field] = SourceFile
		return file
	}
	r.sources[field] = SourceDefault
	return def
}

func (r *resolver) duration(field, envKey string, file, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(envKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, err)
		}
		r.sources[field] = SourceEnv
		return d, nil
	}
	if file != 0 {
		r.sources[field] = SourceFile
		return file, nil
	}
	r.sources[field] = SourceDefault
	return def, nil
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

// validateResolvedConfig returns errors for invalid states.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if cfg.ScriptsRoot == "" {
		return fmt.Errorf("scripts root cannot be empty")
	}
	if cfg.Interpreter == "" {
		return fmt.Errorf("interpreter cannot be empty")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got: %s", cfg.PollInterval)
	}
	return nil
}
