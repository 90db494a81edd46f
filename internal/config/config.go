package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	keyOutput  = "output_file_path_and_file_name"
	keyPattern = "date_time_format_to_append_in_output_file_name"
)

// Config is the startup configuration read from config.yaml.
type Config struct {
	// Output is the path and file name prefix of the CSV export.
	Output string `yaml:"output_file_path_and_file_name" mapstructure:"output_file_path_and_file_name"`

	// FileTimeFormat is a strftime pattern appended to Output, e.g. "_%Y-%m-%d_%H_%M_%S".
	// It only affects the file name; exported timestamps use a fixed layout.
	FileTimeFormat string `yaml:"date_time_format_to_append_in_output_file_name" mapstructure:"date_time_format_to_append_in_output_file_name"`
}

// ErrExists is returned by WriteFile when the target exists and overwrite
// was not requested.
var ErrExists = errors.New("config file already exists")

// Default returns the configuration written by WriteFile.
func Default() *Config {
	return &Config{
		Output:         filepath.Join(".", "timelog"),
		FileTimeFormat: "_%Y-%m-%d_%H_%M_%S",
	}
}

// DefaultPath returns ./config.yaml
func DefaultPath() string {
	return filepath.Join(".", "config.yaml")
}

// Load reads the config file at path. Values can be overridden with
// TASKLOG_OUTPUT_FILE_PATH_AND_FILE_NAME and
// TASKLOG_DATE_TIME_FORMAT_TO_APPEND_IN_OUTPUT_FILE_NAME.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("tasklog")
	v.AutomaticEnv()
	for _, k := range []string{keyOutput, keyPattern} {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that both keys are set and that every directive in the
// pattern is one strftime knows. Literal text is free.
func (c *Config) Validate() error {
	if c.Output == "" {
		return errors.New(keyOutput + " is empty")
	}
	if c.FileTimeFormat == "" {
		return errors.New(keyPattern + " is empty")
	}
	if err := checkDirectives(c.FileTimeFormat); err != nil {
		return fmt.Errorf("%s %q: %w", keyPattern, c.FileTimeFormat, err)
	}
	return nil
}

// checkDirectives rejects %-directives that strftime.Format would copy to
// the output unexpanded, and a pattern ending inside a directive.
func checkDirectives(pattern string) error {
	ref := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		j := i + 1
		if j < len(pattern) && (pattern[j] == '-' || pattern[j] == ':') {
			j++
		}
		if j < len(pattern) && (pattern[j] == 'E' || pattern[j] == 'O') {
			j++
		}
		if j >= len(pattern) {
			return fmt.Errorf("incomplete directive %q", pattern[i:])
		}
		directive := pattern[i : j+1]
		if strftime.Format(directive, ref) == directive {
			return fmt.Errorf("unsupported directive %q", directive)
		}
		i = j
	}
	return nil
}

// OutputPath builds <Output><start formatted with FileTimeFormat>.csv.
func (c *Config) OutputPath(start time.Time) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c.Output + strftime.Format(c.FileTimeFormat, start) + ".csv", nil
}

// WriteFile stores c as YAML at path.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
