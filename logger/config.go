package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Formats and outputs understood by Config.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
)

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills empty fields. Logs go to stderr so command output on
// stdout stays clean.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = zerolog.LevelInfoValue
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = OutputStderr
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if _, err := c.level(); err != nil {
		return err
	}
	if c.Format != "" && c.Format != FormatJSON && !c.console() {
		return fmt.Errorf("logging.format must be json or console (got: %s)", c.Format)
	}
	switch strings.ToLower(c.Output) {
	case "", OutputStdout, OutputStderr:
	default:
		return fmt.Errorf("logging.output must be stdout or stderr (got: %s)", c.Output)
	}
	return nil
}

func (c *Config) level() (zerolog.Level, error) {
	if c.Level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging.level %q is not a zerolog level", c.Level)
	}
	return lvl, nil
}

// console accepts the "pretty" and "text" aliases.
func (c *Config) console() bool {
	switch strings.ToLower(c.Format) {
	case FormatConsole, "pretty", "text":
		return true
	}
	return false
}

func (c *Config) writer() io.Writer {
	if strings.EqualFold(c.Output, OutputStdout) {
		return os.Stdout
	}
	return os.Stderr
}
