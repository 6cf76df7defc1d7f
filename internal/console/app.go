package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/logging"
	"github.com/Jajasek/conch/internal/syntax"
)

// Default layout and loop settings, matching config.Default.
const (
	DefaultPrompt        = ">>> "
	DefaultHelpWidth     = 78
	DefaultMaxHelpIndent = 25
	DefaultExitSyntax    = "e|exit"
	DefaultHelpSyntax    = "h|help"
)

// PositionEnd appends a builtin at the end of the command list. It is the
// zero value, so unset positions append.
const PositionEnd = 0

// Registration declares one command: a grammar string, the help
// description, and the handler to run on a match. Apps are built from an
// explicit table of registrations; there is no runtime discovery.
type Registration struct {
	Syntax      string
	Description string
	Handler     dispatch.Handler
}

// Options configures an App. The zero value of each field selects the
// default; assign Disabled to ExitSyntax or HelpSyntax to drop a builtin.
type Options struct {
	// Prompt is written before each read when ShowPrompt is set.
	Prompt string

	// HelpWidth is the wrap column of the help listing.
	HelpWidth int

	// MaxHelpIndent caps the help description column.
	MaxHelpIndent int

	// ExitSyntax is the grammar of the exit builtin. Disabled drops it.
	ExitSyntax string

	// ExitPosition is the 1-based position of the exit builtin in the
	// command list; PositionEnd (or any out-of-range value) appends.
	ExitPosition int

	// HelpSyntax is the grammar of the help builtin. Disabled drops it.
	HelpSyntax string

	// HelpPosition is the 1-based position of the help builtin.
	HelpPosition int

	// In is the input source. Defaults to os.Stdin.
	In io.Reader

	// Out is where prompts, diagnostics and handler output go.
	// Defaults to os.Stdout.
	Out io.Writer

	// Log is the application logger. Defaults to logging.Null.
	Log *logging.Logger

	// ShowPrompt enables the prompt; callers decide based on TTY state.
	ShowPrompt bool

	// NoColor disables lipgloss styling of the help listing.
	NoColor bool

	// ResolverOptions are appended to the resolver configuration, e.g.
	// hooks or metrics.
	ResolverOptions []dispatch.Option
}

// Disabled drops a builtin when assigned to ExitSyntax or HelpSyntax.
const Disabled = "-"

// App is an interactive console application: a compiled registry, a
// resolver over it, and the read loop.
type App struct {
	opts     Options
	resolver *dispatch.Resolver
	entries  []helpEntry
	running  bool
}

// New compiles the registrations, inserts the exit/help builtins, and
// builds the resolver. Grammar errors in any registration fail here, at
// integrator time.
func New(regs []Registration, opts Options) (*App, error) {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.HelpWidth <= 0 {
		opts.HelpWidth = DefaultHelpWidth
	}
	if opts.MaxHelpIndent <= 0 {
		opts.MaxHelpIndent = DefaultMaxHelpIndent
	}
	if opts.ExitSyntax == "" {
		opts.ExitSyntax = DefaultExitSyntax
	}
	if opts.HelpSyntax == "" {
		opts.HelpSyntax = DefaultHelpSyntax
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Log == nil {
		opts.Log = logging.Null
	}

	app := &App{opts: opts}

	commands := make([]*dispatch.Command, 0, len(regs)+2)
	for _, reg := range regs {
		c, err := dispatch.NewCommand(reg.Syntax, describe(reg.Description), reg.Handler)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", reg.Syntax, err)
		}
		commands = append(commands, c)
	}

	commands, err := app.insertBuiltins(commands)
	if err != nil {
		return nil, err
	}

	for _, c := range commands {
		app.entries = append(app.entries, helpEntry{syntax: c.Syntax(), description: c.Description()})
	}

	resolverOpts := append([]dispatch.Option{
		dispatch.WithOutput(opts.Out),
		dispatch.WithLogger(opts.Log),
		dispatch.WithApp(app),
	}, opts.ResolverOptions...)
	app.resolver = dispatch.NewResolver(dispatch.NewRegistry(commands...), resolverOpts...)
	return app, nil
}

// describe substitutes the placeholder for missing descriptions.
func describe(desc string) string {
	if desc == "" {
		return "description not available"
	}
	return desc
}

// insertBuiltins places the exit and help commands. When both are appended,
// help goes before exit so the listing ends with the way out.
func (a *App) insertBuiltins(commands []*dispatch.Command) ([]*dispatch.Command, error) {
	type builtin struct {
		grammar     string
		description string
		position    int
		handler     dispatch.Handler
	}
	exit := builtin{a.opts.ExitSyntax, "exit the program", a.opts.ExitPosition, a.exitHandler}
	help := builtin{a.opts.HelpSyntax, "show this help", a.opts.HelpPosition, a.helpHandler}

	ordered := []builtin{help, exit}
	if normalizePos(exit.position, len(commands)) < normalizePos(help.position, len(commands)) {
		ordered = []builtin{exit, help}
	}
	for _, b := range ordered {
		if b.grammar == Disabled {
			continue
		}
		c, err := dispatch.NewCommand(b.grammar, b.description, b.handler)
		if err != nil {
			return nil, fmt.Errorf("builtin %q: %w", b.grammar, err)
		}
		pos := normalizePos(b.position, len(commands))
		commands = append(commands[:pos], append([]*dispatch.Command{c}, commands[pos:]...)...)
	}
	return commands, nil
}

// normalizePos converts a 1-based builtin position to a list index;
// PositionEnd, negatives and anything past the end append.
func normalizePos(pos, length int) int {
	if pos <= 0 || pos > length {
		return length
	}
	return pos - 1
}

// exitHandler stops the read loop after the current cycle.
func (a *App) exitHandler(*dispatch.Context, []syntax.Arg) error {
	a.running = false
	return nil
}

// helpHandler prints the command listing.
func (a *App) helpHandler(ctx *dispatch.Context, _ []syntax.Arg) error {
	a.renderHelp(ctx.Out)
	return nil
}

// Resolver exposes the app's resolver, mainly for tests and for driving
// single cycles without the loop.
func (a *App) Resolver() *dispatch.Resolver { return a.resolver }

// Run reads one line per cycle until the exit builtin fires, input ends, or
// a handler defect surfaces. The context is checked between cycles;
// cancellation does not interrupt a blocked read.
func (a *App) Run(ctx context.Context) error {
	a.running = true
	scanner := bufio.NewScanner(a.opts.In)
	for a.running {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.opts.ShowPrompt {
			fmt.Fprint(a.opts.Out, a.opts.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		if err := a.resolver.Resolve(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
