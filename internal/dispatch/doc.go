// Package dispatch matches tokenized console input against declared command
// grammars and runs the first command that accepts it.
//
// # Architecture
//
// A Command pairs a compiled grammar (package syntax) with a Handler. A
// Registry is an ordered, immutable list of commands; declaration order is
// priority. The Resolver drives one dispatch cycle per input line:
//
//  1. Pre-cycle hooks run (may cancel the cycle)
//  2. The input is whitespace-tokenized; blank input becomes one empty token
//  3. Commands are attempted in declaration order; the first full match
//     runs its handler and ends the cycle
//  4. Candidates whose command token matched but whose arguments did not
//     contribute a weighted ParseError instead of aborting the cycle
//  5. When nothing matched, the collected errors are ranked, deduplicated
//     and printed, followed by one automatic help lookup
//  6. Post-cycle hooks observe the outcome; metrics are recorded if enabled
//
// # Alignment and confidence
//
// Matching an individual candidate is deliberately typo-tolerant: a token
// that satisfies no alternative of its part is consumed anyway and logged,
// so one bad token cannot derail the rest of a long argument list. Each
// attempt tracks a confidence penalty that shrinks with every literal
// command hit and every genuinely consumed token. The surfaced error keeps
// the first message but carries the attempt's worst base weight plus the
// remaining penalty, which lets the resolver rank structurally different
// candidates by closeness of match without any edit-distance computation.
// The weight orders diagnostics only; it never decides which command runs.
//
// # Handlers
//
// Handlers receive a Context and the resolved arguments, one per
// information-carrying part. Value-level checks the grammar cannot express
// belong in the handler; reject with NewInvalidArgValue, NewInvalidSyntax
// or NewInvalidCommandValue to fold the rejection into the normal
// diagnostic ranking. Any other handler error aborts the cycle and is
// returned from Resolve unchanged.
//
// # Usage
//
//	greet := dispatch.MustCommand("greet once|n-times [<n>]", "print greetings",
//		func(ctx *dispatch.Context, args []syntax.Arg) error {
//			...
//		})
//	registry := dispatch.NewRegistry(greet, help, exit)
//	resolver := dispatch.NewResolver(registry, dispatch.WithOutput(os.Stdout))
//	err := resolver.Resolve(ctx, line)
package dispatch
