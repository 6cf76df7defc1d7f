package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Jajasek/conch/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(s, config.Default()) {
		t.Errorf("Load = %+v, want defaults", s)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
prompt = "$ "
help_width = 100
exit_syntax = "q|quit"
trace = true
plugins = ["a.lua", "b.lua"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Prompt != "$ " || s.HelpWidth != 100 || s.ExitSyntax != "q|quit" || !s.Trace {
		t.Errorf("overrides not applied: %+v", s)
	}
	if len(s.Plugins) != 2 || s.Plugins[0] != "a.lua" {
		t.Errorf("plugins = %v", s.Plugins)
	}
	// Untouched keys keep their defaults.
	if s.HelpSyntax != "h|help" || s.MaxHelpIndent != 25 {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("prompt = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CONCH_PROMPT", "% ")
	t.Setenv("CONCH_HELP_WIDTH", "60")
	t.Setenv("CONCH_TRACE", "true")

	s := config.Default()
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if s.Prompt != "% " || s.HelpWidth != 60 || !s.Trace {
		t.Errorf("env overlay not applied: %+v", s)
	}
	if s.LogLevel != "info" {
		t.Errorf("unset variable changed a field: %+v", s)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	t.Setenv("CONCH_HELP_WIDTH", "wide")
	s := config.Default()
	if err := s.ApplyEnv(); err == nil {
		t.Fatal("ApplyEnv accepted a non-numeric width")
	}
}

func TestValidate(t *testing.T) {
	s := config.Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	s.HelpWidth = 0
	if err := s.Validate(); err == nil {
		t.Error("zero help_width accepted")
	}
}
