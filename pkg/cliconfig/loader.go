package cliconfig

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory for global config
	GlobalConfigDir = "userdesk"

	// DotenvFileName is the dotenv file read from the current directory.
	DotenvFileName = ".env"
)

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".userdeskrc.yaml", ".userdeskrc.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// FindLocalConfig returns the first local config file in the current
// directory, or "" when there is none.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return firstExisting(cwd, LocalConfigFileNames), nil
}

// FindGlobalConfig returns the first global config file under the user config
// directory ($XDG_CONFIG_HOME/userdesk on Linux), or "" when there is none.
func FindGlobalConfig() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		//nolint:nilerr // no config dir means no global config
		return "", nil
	}
	return firstExisting(filepath.Join(configDir, GlobalConfigDir), GlobalConfigFileNames), nil
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile loads a Config from a YAML file. SetFields records the keys
// present in the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, newConfigError(path, err)
	}

	var keys map[string]interface{}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, newConfigError(path, err)
	}
	cfg.SetFields = make(map[string]bool, len(keys))
	for k := range keys {
		cfg.SetFields[k] = true
	}
	cfg.Sources = make(map[string]string)
	return &cfg, nil
}

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return e.Path + " (line " + itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

func newConfigError(path string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Message: err.Error()}
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		ce.Line = yamlErrorLine(err.Error())
	}
	return ce
}

// yamlErrorLine extracts N from yaml.v3 syntax errors of the form "yaml: line N: ...".
func yamlErrorLine(msg string) int {
	const prefix = "yaml: line "
	if len(msg) <= len(prefix) || msg[:len(prefix)] != prefix {
		return 0
	}
	n := 0
	for _, c := range msg[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// LoadAll loads configuration from every source below flags and merges them.
// Precedence: env > .env > local config > global config > defaults.
// Missing files are skipped; malformed ones are reported.
func LoadAll() (*Config, error) {
	cfg := NewDefault()

	files := []struct {
		find   func() (string, error)
		source string
	}{
		{FindGlobalConfig, SourceGlobal},
		{FindLocalConfig, SourceLocal},
	}
	for _, f := range files {
		path, err := f.find()
		if err != nil || path == "" {
			continue
		}
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, f.source)
		cfg.Files = append(cfg.Files, path)
	}

	if err := LoadDotenvConfig(cfg, DotenvFileName); err != nil {
		return nil, err
	}
	if err := LoadEnvConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
