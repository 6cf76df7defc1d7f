package dispatch

// PreHook is called before a dispatch cycle starts matching.
// Returning false cancels the cycle.
type PreHook interface {
	// PreResolve is called with the tokenized input before any candidate
	// is tried. Returns false to cancel the cycle.
	PreResolve(ctx *Context, tokens []string) bool
}

// PostHook is called after a dispatch cycle completes.
type PostHook interface {
	// PostResolve observes the cycle outcome. err is non-nil only for a
	// fatal handler failure; parse failures are consumed by the resolver's
	// own diagnostics.
	PostResolve(ctx *Context, tokens []string, err error)
}

// PreHookFunc is a function adapter for PreHook.
type PreHookFunc func(ctx *Context, tokens []string) bool

// PreResolve implements PreHook.
func (f PreHookFunc) PreResolve(ctx *Context, tokens []string) bool {
	return f(ctx, tokens)
}

// PostHookFunc is a function adapter for PostHook.
type PostHookFunc func(ctx *Context, tokens []string, err error)

// PostResolve implements PostHook.
func (f PostHookFunc) PostResolve(ctx *Context, tokens []string, err error) {
	f(ctx, tokens, err)
}
