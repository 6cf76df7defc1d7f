package console_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Jajasek/conch/internal/console"
	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/syntax"
)

func ok(*dispatch.Context, []syntax.Arg) error { return nil }

func newApp(t *testing.T, regs []console.Registration, opts console.Options) (*console.App, *strings.Builder) {
	t.Helper()
	out := &strings.Builder{}
	opts.Out = out
	opts.NoColor = true
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}
	app, err := console.New(regs, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app, out
}

func TestRunExitStopsLoop(t *testing.T) {
	var ran []string
	regs := []console.Registration{
		{Syntax: "go", Handler: func(*dispatch.Context, []syntax.Arg) error {
			ran = append(ran, "go")
			return nil
		}},
	}
	app, _ := newApp(t, regs, console.Options{
		In: strings.NewReader("go\nexit\ngo\n"),
	})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ran) != 1 {
		t.Errorf("handler ran %d times, want 1 (loop must stop at exit)", len(ran))
	}
}

func TestRunPromptWritten(t *testing.T) {
	app, out := newApp(t, nil, console.Options{
		In:         strings.NewReader("exit\n"),
		ShowPrompt: true,
	})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.String(), console.DefaultPrompt) {
		t.Errorf("output = %q, want it to start with the prompt", out.String())
	}
}

func TestRunEndOfInputStopsLoop(t *testing.T) {
	app, _ := newApp(t, nil, console.Options{In: strings.NewReader("")})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunContextCancelChecked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app, _ := newApp(t, nil, console.Options{In: strings.NewReader("exit\n")})

	if err := app.Run(ctx); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestRunHandlerDefectSurfaces(t *testing.T) {
	defect := fmt.Errorf("boom")
	regs := []console.Registration{
		{Syntax: "crash", Handler: func(*dispatch.Context, []syntax.Arg) error {
			return defect
		}},
	}
	app, _ := newApp(t, regs, console.Options{In: strings.NewReader("crash\nexit\n")})

	if err := app.Run(context.Background()); err != defect {
		t.Errorf("Run = %v, want the defect surfaced", err)
	}
}

func TestBuiltinsAppendedHelpBeforeExit(t *testing.T) {
	regs := []console.Registration{
		{Syntax: "go", Description: "move", Handler: ok},
	}
	app, out := newApp(t, regs, console.Options{})

	if err := app.Resolver().Resolve(context.Background(), "help"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "Available commands:\n" +
		"  go        move\n" +
		"  h|help    show this help\n" +
		"  e|exit    exit the program\n"
	if out.String() != want {
		t.Errorf("listing = %q, want %q", out.String(), want)
	}
}

func TestBuiltinPositions(t *testing.T) {
	regs := []console.Registration{
		{Syntax: "go", Description: "move", Handler: ok},
	}
	app, out := newApp(t, regs, console.Options{
		ExitPosition: 1,
		HelpPosition: console.PositionEnd,
	})

	if err := app.Resolver().Resolve(context.Background(), "help"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("listing has %d lines: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "  e|exit") {
		t.Errorf("exit not first: %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "  h|help") {
		t.Errorf("help not last: %q", lines[3])
	}
}

func TestBuiltinDisabled(t *testing.T) {
	app, out := newApp(t, nil, console.Options{ExitSyntax: console.Disabled})

	if err := app.Resolver().Resolve(context.Background(), "help"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if strings.Contains(out.String(), "exit") {
		t.Errorf("disabled builtin still listed: %q", out.String())
	}
	if !strings.Contains(out.String(), "h|help") {
		t.Errorf("help builtin missing: %q", out.String())
	}
}

func TestBadRegistrationFailsConstruction(t *testing.T) {
	_, err := console.New([]console.Registration{
		{Syntax: "set <a>|<b> <c>", Handler: ok},
	}, console.Options{NoColor: true})
	if err == nil {
		t.Fatal("New accepted a part with two free slots")
	}
}

func TestDescriptionPlaceholder(t *testing.T) {
	regs := []console.Registration{
		{Syntax: "mystery", Handler: ok},
	}
	app, out := newApp(t, regs, console.Options{})

	if err := app.Resolver().Resolve(context.Background(), "help"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(out.String(), "mystery    description not available") {
		t.Errorf("placeholder missing: %q", out.String())
	}
}
