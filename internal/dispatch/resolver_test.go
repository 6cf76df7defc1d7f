package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/syntax"
)

func ok(*dispatch.Context, []syntax.Arg) error { return nil }

// printing returns a handler that writes msg to the cycle output.
func printing(msg string) dispatch.Handler {
	return func(ctx *dispatch.Context, _ []syntax.Arg) error {
		fmt.Fprintln(ctx.Out, msg)
		return nil
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	var ran []string
	mark := func(name string) dispatch.Handler {
		return func(*dispatch.Context, []syntax.Arg) error {
			ran = append(ran, name)
			return nil
		}
	}
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("go|run", "", mark("first")),
		dispatch.MustCommand("go [<where>]", "", mark("second")),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&strings.Builder{}))

	if err := r.Resolve(context.Background(), "go"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ran) != 1 || ran[0] != "first" {
		t.Errorf("ran = %v; declaration order must win over closeness", ran)
	}
}

func TestResolveUnknownCommand(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("foo <x>", "", ok),
		dispatch.MustCommand("bar <y>", "", ok),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), "baz"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "Unknown command baz.\n\nNo additional help found.\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestResolveRankedDiagnosticsAndHelpFallback(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("set <key> <value>", "", ok),
		dispatch.MustCommand("<cmd> on|off", "", ok),
		dispatch.MustCommand("h|help", "", printing("HELP")),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	// "set onlykey" is a near miss for the set command and a far miss for
	// the free-command grammar: the missing-mandatory diagnosis must print
	// first, and help must follow automatically.
	if err := r.Resolve(context.Background(), "set onlykey"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "    Missing mandatory argument '<value>'\n" +
		"or  Invalid option 'onlykey', must be one of 'on|off'.\n\n" +
		"HELP\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestResolveSingleDiagnosticNoIndent(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("set <key> <value>", "", ok),
		dispatch.MustCommand("h|help", "", printing("HELP")),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), "set onlykey"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "Missing mandatory argument '<value>'.\n\nHELP\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestResolveDeduplicatesIdenticalMessages(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("set <key> <value>", "", ok),
		dispatch.MustCommand("set <key> <value>", "", ok),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), "set onlykey"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if strings.Count(out.String(), "Missing mandatory argument '<value>'") != 1 {
		t.Errorf("duplicate messages not collapsed: %q", out.String())
	}
}

func TestResolveFallbackIsBoundedToOneLevel(t *testing.T) {
	var out strings.Builder
	// No help command, and the free-command grammar fails on "help" too,
	// so the nested cycle collects errors. It must print the terminal
	// message instead of recursing again.
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("<cmd> on|off", "", ok),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), "lights dim"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got := out.String()
	if strings.Count(got, "No additional help found.\n") != 1 {
		t.Errorf("fallback recursed or went missing: %q", got)
	}
	if !strings.HasPrefix(got, "Invalid option 'dim'") {
		t.Errorf("original diagnostic missing: %q", got)
	}
}

func TestResolveFallbackGuardClears(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("set <key> <value>", "", ok),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	ctx := context.Background()
	if err := r.Resolve(ctx, "set onlykey"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out.Reset()

	// A later, successful cycle must be unaffected by the earlier fallback.
	if err := r.Resolve(ctx, "set a b"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if out.String() != "" {
		t.Errorf("clean match produced output: %q", out.String())
	}
}

func TestResolveEmptyInputMatchesEmptyGrammar(t *testing.T) {
	var out strings.Builder
	ran := false
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("", "", func(_ *dispatch.Context, args []syntax.Arg) error {
			ran = true
			if len(args) != 0 {
				t.Errorf("args = %v, want none", args)
			}
			return nil
		}),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), "   "); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ran {
		t.Error("empty-grammar handler did not run for blank input")
	}
	if out.String() != "" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestResolveBlankInputWithoutEmptyGrammar(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("h|help", "", printing("HELP")),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out))

	if err := r.Resolve(context.Background(), ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Empty token matches nothing: no "Unknown command" line (there is no
	// command to name), straight to help.
	if out.String() != "HELP\n" {
		t.Errorf("output = %q, want bare help listing", out.String())
	}
}

func TestResolveHandlerDefectAborts(t *testing.T) {
	defect := errors.New("boom")
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("crash", "", func(*dispatch.Context, []syntax.Arg) error {
			return defect
		}),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&strings.Builder{}))

	if err := r.Resolve(context.Background(), "crash"); !errors.Is(err, defect) {
		t.Errorf("Resolve = %v, want the handler defect surfaced unchanged", err)
	}
}

func TestResolvePreHookCancels(t *testing.T) {
	ran := false
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("go", "", func(*dispatch.Context, []syntax.Arg) error {
			ran = true
			return nil
		}),
	)
	r := dispatch.NewResolver(registry,
		dispatch.WithOutput(&strings.Builder{}),
		dispatch.WithPreHook(dispatch.PreHookFunc(func(*dispatch.Context, []string) bool {
			return false
		})),
	)

	if err := r.Resolve(context.Background(), "go"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ran {
		t.Error("handler ran despite cancelled cycle")
	}
}

func TestResolvePostHookObservesOutcome(t *testing.T) {
	defect := errors.New("boom")
	var seen []error
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("crash", "", func(*dispatch.Context, []syntax.Arg) error {
			return defect
		}),
		dispatch.MustCommand("go", "", ok),
	)
	r := dispatch.NewResolver(registry,
		dispatch.WithOutput(&strings.Builder{}),
		dispatch.WithPostHook(dispatch.PostHookFunc(func(_ *dispatch.Context, _ []string, err error) {
			seen = append(seen, err)
		})),
	)

	_ = r.Resolve(context.Background(), "go")
	_ = r.Resolve(context.Background(), "crash")

	if len(seen) != 2 || seen[0] != nil || !errors.Is(seen[1], defect) {
		t.Errorf("post hook saw %v, want [nil, boom]", seen)
	}
}

func TestResolveMetrics(t *testing.T) {
	var out strings.Builder
	registry := dispatch.NewRegistry(
		dispatch.MustCommand("set <key> <value>", "", ok),
		dispatch.MustCommand("h|help", "", printing("HELP")),
	)
	r := dispatch.NewResolver(registry, dispatch.WithOutput(&out), dispatch.WithMetrics())

	ctx := context.Background()
	_ = r.Resolve(ctx, "set a b")
	_ = r.Resolve(ctx, "set onlykey") // fails, falls back to help

	m := r.Metrics()
	if m == nil {
		t.Fatal("metrics disabled")
	}
	snap := m.Snapshot()
	// Three cycles: two top-level plus the help fallback.
	if snap.Cycles != 3 {
		t.Errorf("cycles = %d, want 3", snap.Cycles)
	}
	if snap.Matches != 2 {
		t.Errorf("matches = %d, want 2 (set a b, fallback help)", snap.Matches)
	}
	if snap.Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", snap.Fallbacks)
	}
	if snap.ParseFailures != 1 {
		t.Errorf("parse failures = %d, want 1", snap.ParseFailures)
	}
	stats := m.CommandStats("set <key> <value>")
	if stats == nil || stats.MatchCount != 1 || stats.FailureCount != 1 {
		t.Errorf("set stats = %+v, want 1 match and 1 failure", stats)
	}
}

func TestRegistryOrderAndFind(t *testing.T) {
	a := dispatch.MustCommand("a", "", ok)
	b := dispatch.MustCommand("b", "", ok)
	registry := dispatch.NewRegistry(a, b)

	if registry.Len() != 2 {
		t.Fatalf("Len = %d", registry.Len())
	}
	cmds := registry.Commands()
	if cmds[0] != a || cmds[1] != b {
		t.Error("Commands() lost declaration order")
	}
	if registry.Find("b") != b {
		t.Error("Find failed")
	}
	if registry.Find("missing") != nil {
		t.Error("Find invented a command")
	}
}
