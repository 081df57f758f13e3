package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ScriptsRoot string
	Owner       string
	LogLevel    string
	Interpreter string
	NoColor     bool

	// Flags to track if they were explicitly set by the user
	ScriptsRootSet bool
	OwnerSet       bool
	LogLevelSet    bool
	InterpreterSet bool
	NoColorSet     bool
}

// AppConfig represents the contents of the YAML config file.
type AppConfig struct {
	ScriptsRoot  string        `yaml:"scripts_root"`
	GitHubOwner  string        `yaml:"github_owner"`
	GitHubToken  string        `yaml:"github_token,omitempty"`
	GitHubAPI    string        `yaml:"github_api,omitempty"`
	Interpreter  string        `yaml:"interpreter"`
	PollInterval time.Duration `yaml:"poll_interval"`
	TempDir      string        `yaml:"temp_dir,omitempty"`
	HistoryPath  string        `yaml:"history_path,omitempty"`
	LogLevel     string        `yaml:"log_level"`
	NoColor      *bool         `yaml:"no_color,omitempty"`
}

// Constants for default values.
const (
	DefaultScriptsRoot  = "scripts"
	DefaultGitHubOwner  = "mrdatawolf"
	DefaultInterpreter  = "powershell.exe"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultLogLevel     = "info"

	localConfigName = ".scriptdeck.yaml"
	appDirName      = "scriptdeck"
)

// LoadConfig reads the YAML config file. It returns an empty AppConfig and
// an empty path when no file exists. A file that exists but cannot be read
// or parsed is logged and ignored.
func LoadConfig(log logrus.FieldLogger) (*AppConfig, string) {
	path := getConfigPath()
	if path == "" {
		log.Debug("No config file found, using defaults")
		return &AppConfig{}, ""
	}
	cfg, err := loadFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("Ignoring unreadable config file")
		return &AppConfig{}, ""
	}
	log.WithField("path", path).Debug("Loaded config file")
	return cfg, path
}

func loadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// getConfigPath finds the config file. It checks the working directory first,
// then the user config directory.
func getConfigPath() string {
	if _, err := os.Stat(localConfigName); err == nil {
		return localConfigName
	}
	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	userPath := filepath.Join(configHome, appDirName, "config.yaml")
	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}
	return ""
}

// defaultHistoryPath places the history database in the user config
// directory, falling back to the working directory.
func defaultHistoryPath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" && dir != "/" {
		return filepath.Join(dir, appDirName, "history.db")
	}
	return "scriptdeck-history.db"
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are named. Missing files are skipped; set variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
