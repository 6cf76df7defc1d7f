// Package trace logs dispatch cycles as indented entry/exit arrows.
//
// A Tracer installs as a pre/post hook pair on a resolver. Each cycle logs
// one "-->" line on entry and one "<--" line on exit; nested cycles (the
// help fallback) indent one level deeper. Depth is scoped to the tracer
// instance, so independent resolvers trace independently.
package trace

import (
	"strings"
	"sync"

	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/logging"
)

const indentStep = "  "

// Tracer emits a debug line at the start and end of every dispatch cycle.
type Tracer struct {
	mu    sync.Mutex
	depth int
	log   *logging.Logger
}

// New returns a tracer writing through log at debug level.
func New(log *logging.Logger) *Tracer {
	if log == nil {
		log = logging.Null
	}
	return &Tracer{log: log.WithComponent("trace")}
}

// Hooks returns the hook pair to register with dispatch.WithPreHook and
// dispatch.WithPostHook. The pre hook never cancels the cycle.
func (t *Tracer) Hooks() (dispatch.PreHook, dispatch.PostHook) {
	pre := dispatch.PreHookFunc(func(_ *dispatch.Context, tokens []string) bool {
		t.enter(tokens)
		return true
	})
	post := dispatch.PostHookFunc(func(_ *dispatch.Context, tokens []string, err error) {
		t.exit(tokens, err)
	})
	return pre, post
}

func (t *Tracer) enter(tokens []string) {
	t.mu.Lock()
	indent := strings.Repeat(indentStep, t.depth)
	t.depth++
	t.mu.Unlock()
	t.log.Debug("%s--> dispatch %q", indent, strings.Join(tokens, " "))
}

func (t *Tracer) exit(tokens []string, err error) {
	t.mu.Lock()
	if t.depth > 0 {
		t.depth--
	}
	indent := strings.Repeat(indentStep, t.depth)
	t.mu.Unlock()
	if err != nil {
		t.log.Debug("%s<-- dispatch %q: %v", indent, strings.Join(tokens, " "), err)
		return
	}
	t.log.Debug("%s<-- dispatch %q", indent, strings.Join(tokens, " "))
}

// Depth reports the current nesting level, for tests.
func (t *Tracer) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth
}
