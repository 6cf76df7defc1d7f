// Package main is the entry point for the conch interactive console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Jajasek/conch/internal/config"
	"github.com/Jajasek/conch/internal/console"
	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/launch"
	"github.com/Jajasek/conch/internal/logging"
	"github.com/Jajasek/conch/internal/plugin"
	"github.com/Jajasek/conch/internal/trace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type flags struct {
	configPath string
	plugins    []string
	logLevel   string
	traceOn    bool
	noColor    bool
}

func run() int {
	fl := parseFlags()

	settings, err := config.Load(fl.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := settings.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlagOverrides(&settings, fl)
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(settings.LogLevel),
		Output: os.Stderr,
		Prefix: "conch",
	})

	launcher := launch.NewLauncher(os.Stdout, log)
	defer launcher.Shutdown(5 * time.Second)

	regs := demoCommands(launcher)

	runtime := plugin.NewRuntime(os.Stdout, log)
	defer runtime.Close()
	for _, path := range settings.Plugins {
		loaded, err := runtime.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		regs = append(regs, loaded...)
	}

	var resolverOpts []dispatch.Option
	if settings.Trace {
		pre, post := trace.New(log).Hooks()
		resolverOpts = append(resolverOpts,
			dispatch.WithPreHook(pre), dispatch.WithPostHook(post))
	}

	app, err := console.New(regs, console.Options{
		Prompt:          settings.Prompt,
		HelpWidth:       settings.HelpWidth,
		MaxHelpIndent:   settings.MaxHelpIndent,
		ExitSyntax:      settings.ExitSyntax,
		ExitPosition:    settings.ExitPosition,
		HelpSyntax:      settings.HelpSyntax,
		HelpPosition:    settings.HelpPosition,
		Log:             log,
		ShowPrompt:      term.IsTerminal(int(os.Stdin.Fd())),
		NoColor:         settings.NoColor,
		ResolverOptions: resolverOpts,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() flags {
	var fl flags
	var showVersion bool

	pflag.StringVarP(&fl.configPath, "config", "c", config.DefaultPath(), "path to the configuration file")
	pflag.StringArrayVarP(&fl.plugins, "plugin", "p", nil, "Lua plugin to load (repeatable)")
	pflag.StringVar(&fl.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pflag.BoolVar(&fl.traceOn, "trace", false, "log every dispatch cycle")
	pflag.BoolVar(&fl.noColor, "no-color", false, "disable styled output")
	pflag.BoolVarP(&showVersion, "version", "v", false, "show version information")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "conch - interactive command console\n\n")
		fmt.Fprintf(os.Stderr, "Usage: conch [options]\n\nOptions:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if showVersion {
		fmt.Printf("conch %s (%s)\n", version, commit)
		os.Exit(0)
	}
	return fl
}

// applyFlagOverrides lets the command line win over the file and the
// environment.
func applyFlagOverrides(s *config.Settings, fl flags) {
	if fl.logLevel != "" {
		s.LogLevel = fl.logLevel
	}
	if fl.traceOn {
		s.Trace = true
	}
	if fl.noColor {
		s.NoColor = true
	}
	s.Plugins = append(s.Plugins, fl.plugins...)
}
