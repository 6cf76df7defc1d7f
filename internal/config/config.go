package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. CONCH_LOG_LEVEL.
const EnvPrefix = "CONCH_"

// Settings holds everything the binary reads from its config file. Field
// defaults come from Default; a config file and then the environment
// override them in that order.
type Settings struct {
	// Prompt is printed before each interactive read.
	Prompt string `toml:"prompt"`

	// HelpWidth is the wrap column of the help listing.
	HelpWidth int `toml:"help_width"`

	// MaxHelpIndent caps the help description column.
	MaxHelpIndent int `toml:"max_help_indent"`

	// ExitSyntax and ExitPosition place the exit builtin. A "-" syntax
	// disables it; position 0 appends, otherwise it is 1-based.
	ExitSyntax   string `toml:"exit_syntax"`
	ExitPosition int    `toml:"exit_position"`

	// HelpSyntax and HelpPosition place the help builtin, like the exit
	// builtin above.
	HelpSyntax   string `toml:"help_syntax"`
	HelpPosition int    `toml:"help_position"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// NoColor disables styled output.
	NoColor bool `toml:"no_color"`

	// Trace logs every dispatch cycle entry and exit at debug level.
	Trace bool `toml:"trace"`

	// Plugins are Lua files loaded at startup, in order.
	Plugins []string `toml:"plugins"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Prompt:        ">>> ",
		HelpWidth:     78,
		MaxHelpIndent: 25,
		ExitSyntax:    "e|exit",
		HelpSyntax:    "h|help",
		LogLevel:      "info",
	}
}

// DefaultPath returns the per-user config file location, or "" when the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "conch", "config.toml")
}

// Load reads TOML settings from path on top of the defaults. A missing
// file is not an error: the defaults are returned as-is.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overlays CONCH_-prefixed environment variables onto s. Unset
// variables leave the current value alone; empty values are applied.
func (s *Settings) ApplyEnv() error {
	lookupString(EnvPrefix+"PROMPT", &s.Prompt)
	lookupString(EnvPrefix+"EXIT_SYNTAX", &s.ExitSyntax)
	lookupString(EnvPrefix+"HELP_SYNTAX", &s.HelpSyntax)
	lookupString(EnvPrefix+"LOG_LEVEL", &s.LogLevel)

	for env, dst := range map[string]*int{
		EnvPrefix + "HELP_WIDTH":      &s.HelpWidth,
		EnvPrefix + "MAX_HELP_INDENT": &s.MaxHelpIndent,
		EnvPrefix + "EXIT_POSITION":   &s.ExitPosition,
		EnvPrefix + "HELP_POSITION":   &s.HelpPosition,
	} {
		if err := lookupInt(env, dst); err != nil {
			return err
		}
	}

	for env, dst := range map[string]*bool{
		EnvPrefix + "NO_COLOR": &s.NoColor,
		EnvPrefix + "TRACE":    &s.Trace,
	} {
		if err := lookupBool(env, dst); err != nil {
			return err
		}
	}
	return nil
}

func lookupString(env string, dst *string) {
	if val, ok := os.LookupEnv(env); ok {
		*dst = val
	}
}

func lookupInt(env string, dst *int) error {
	val, ok := os.LookupEnv(env)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", env, err)
	}
	*dst = n
	return nil
}

func lookupBool(env string, dst *bool) error {
	val, ok := os.LookupEnv(env)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s: %w", env, err)
	}
	*dst = b
	return nil
}

// Validate rejects settings the console cannot run with.
func (s Settings) Validate() error {
	if s.HelpWidth <= 0 {
		return fmt.Errorf("help_width must be positive, got %d", s.HelpWidth)
	}
	if s.MaxHelpIndent <= 0 {
		return fmt.Errorf("max_help_indent must be positive, got %d", s.MaxHelpIndent)
	}
	if s.Prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	return nil
}
