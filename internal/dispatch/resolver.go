package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jajasek/conch/internal/logging"
)

// Resolver runs dispatch cycles against a registry: it tokenizes one input
// line, tries every command in declaration order, and on total failure
// prints one ranked, deduplicated diagnostic followed by a single guarded
// help fallback.
//
// A Resolver serializes its cycles with an internal mutex; the fallback
// guard is per-resolver state, so concurrent Resolve calls are safe but
// never overlap.
type Resolver struct {
	mu sync.Mutex

	registry *Registry
	out      io.Writer
	log      *logging.Logger
	app      any

	preHooks  []PreHook
	postHooks []PostHook
	metrics   *Metrics

	// inFallback guards the automatic help lookup: a failing nested cycle
	// reports "No additional help found." instead of recursing again.
	inFallback bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOutput sets the writer for diagnostics and handler output.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Resolver) { r.out = w }
}

// WithLogger sets the logger passed to handlers and used for cycle logging.
func WithLogger(log *logging.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithApp sets the application value handed to handlers via Context.App.
func WithApp(app any) Option {
	return func(r *Resolver) { r.app = app }
}

// WithMetrics enables dispatch statistics collection.
func WithMetrics() Option {
	return func(r *Resolver) { r.metrics = NewMetrics() }
}

// WithPreHook appends a pre-cycle hook.
func WithPreHook(h PreHook) Option {
	return func(r *Resolver) { r.preHooks = append(r.preHooks, h) }
}

// WithPostHook appends a post-cycle hook.
func WithPostHook(h PostHook) Option {
	return func(r *Resolver) { r.postHooks = append(r.postHooks, h) }
}

// NewResolver creates a resolver over the registry.
func NewResolver(registry *Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		out:      os.Stdout,
		log:      logging.Null,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the resolver's registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Metrics returns the metrics collector, or nil when disabled.
func (r *Resolver) Metrics() *Metrics { return r.metrics }

// Resolve dispatches one line of user input. It is side-effecting: all
// recoverable outcomes (match, diagnostics, help fallback) are written to
// the output writer and return nil. The returned error is reserved for
// handler defects outside the ParseError taxonomy, which abort the cycle.
func (r *Resolver) Resolve(ctx context.Context, input string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(ctx, input)
}

// resolve runs one cycle; the caller holds r.mu. The help fallback re-enters
// resolve directly, bounded to one level by the inFallback flag.
func (r *Resolver) resolve(ctx context.Context, input string) (err error) {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		// Blank input becomes the empty token so an empty-grammar command
		// can claim it.
		tokens = []string{""}
	}

	cctx := &Context{Ctx: ctx, Out: r.out, Log: r.log, App: r.app}

	for _, h := range r.preHooks {
		if !h.PreResolve(cctx, tokens) {
			r.log.Debug("cycle cancelled by hook: %q", input)
			return nil
		}
	}
	defer func() {
		for _, h := range r.postHooks {
			h.PostResolve(cctx, tokens, err)
		}
	}()

	r.metrics.recordCycle()

	var logged []*ParseError
	for _, c := range r.registry.commands {
		start := time.Now()
		matched, perr, fatal := c.attempt(cctx, tokens)
		switch {
		case fatal != nil:
			r.metrics.recordHandlerError(c.Syntax())
			return fatal
		case matched && perr == nil:
			r.metrics.recordMatch(c.Syntax(), time.Since(start))
			r.log.Debug("matched %q", c.Syntax())
			return nil
		case perr != nil:
			r.metrics.recordParseFailure(c.Syntax())
			logged = append(logged, perr)
		}
	}

	if r.inFallback {
		// This cycle was itself the help lookup; stop here.
		fmt.Fprintln(r.out, "No additional help found.")
		return nil
	}

	if len(logged) > 0 {
		r.printDiagnostics(logged)
	} else if tokens[0] != "" {
		fmt.Fprintf(r.out, "Unknown command %s.\n\n", tokens[0])
	}

	return r.fallbackHelp(ctx)
}

// printDiagnostics ranks the collected failures ascending by adjusted
// weight (most plausible first), drops duplicate messages keeping the
// strongest, and prints them joined with "or".
func (r *Resolver) printDiagnostics(logged []*ParseError) {
	sort.SliceStable(logged, func(i, j int) bool {
		return logged[i].Weight < logged[j].Weight
	})

	seen := make(map[string]bool, len(logged))
	var messages []string
	for _, e := range logged {
		if seen[e.Message] {
			continue
		}
		seen[e.Message] = true
		messages = append(messages, e.Message)
	}

	if len(messages) > 1 {
		fmt.Fprint(r.out, "    ")
	}
	fmt.Fprintf(r.out, "%s.\n\n", strings.Join(messages, "\nor  "))
}

// fallbackHelp resolves "help" against the same registry, exactly once. The
// guard flag is cleared unconditionally when the nested cycle returns.
func (r *Resolver) fallbackHelp(ctx context.Context) error {
	r.metrics.recordFallback()
	r.inFallback = true
	defer func() { r.inFallback = false }()
	return r.resolve(ctx, "help")
}
