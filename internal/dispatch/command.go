package dispatch

import (
	"context"
	"errors"
	"io"

	"github.com/Jajasek/conch/internal/logging"
	"github.com/Jajasek/conch/internal/syntax"
)

// initialConfidence is the starting confidence penalty of an attempt.
// Literal command hits and consumed tokens decrease it, so among failed
// candidates the one that got furthest reports the lowest weight.
const initialConfidence = 10000

// Context carries the resources a handler may use during one dispatch
// cycle.
type Context struct {
	// Ctx is the cycle's context; long-running handlers should honor it.
	Ctx context.Context

	// Out is the console output writer.
	Out io.Writer

	// Log is the application logger.
	Log *logging.Logger

	// App is the integrator's application value, for handlers that need
	// shared state.
	App any
}

// Handler executes a matched command. It receives one resolved argument per
// information-carrying part, in grammar order. Returning a *ParseError
// (built with NewInvalidSyntax, NewInvalidArgValue or NewInvalidCommandValue)
// rejects the input as if parsing had failed; any other error is treated as
// a handler defect and aborts the dispatch cycle.
type Handler func(ctx *Context, args []syntax.Arg) error

// Command pairs a compiled grammar with its handler. Commands are immutable
// once built; all matching state lives on the stack of a single attempt, so
// one Command may serve any number of dispatch cycles.
type Command struct {
	grammar     syntax.Grammar
	description string
	handler     Handler

	// order is the declaration index assigned by NewRegistry.
	order int
}

// NewCommand compiles the grammar string and binds the handler.
// Description feeds the help listing; an empty description is replaced with
// a placeholder there.
func NewCommand(grammar, description string, h Handler) (*Command, error) {
	g, err := syntax.Parse(grammar)
	if err != nil {
		return nil, err
	}
	return &Command{grammar: g, description: description, handler: h}, nil
}

// MustCommand is NewCommand for statically known grammars; it panics on a
// malformed grammar.
func MustCommand(grammar, description string, h Handler) *Command {
	c, err := NewCommand(grammar, description, h)
	if err != nil {
		panic(err)
	}
	return c
}

// Syntax returns the normalized grammar string.
func (c *Command) Syntax() string { return c.grammar.String() }

// Description returns the help description.
func (c *Command) Description() string { return c.description }

// attemptState is the per-attempt scratch state. A fresh value is built for
// every attempt; nothing persists on the Command between cycles.
type attemptState struct {
	first      *ParseError
	maxWeight  int
	confidence int
}

// record keeps the chronologically first error as the representative
// message while the aggregate weight tracks the worst evidence seen.
func (s *attemptState) record(e *ParseError) {
	if s.first == nil {
		s.first = e
		s.maxWeight = e.Weight
		return
	}
	if e.Weight > s.maxWeight {
		s.maxWeight = e.Weight
	}
}

// surface builds the error reported to the resolver: the first message,
// weighted by the worst base weight plus the remaining confidence penalty.
func (s *attemptState) surface() *ParseError {
	if s.first == nil {
		return nil
	}
	return &ParseError{
		Kind:    s.first.Kind,
		Message: s.first.Message,
		Weight:  s.maxWeight + s.confidence,
	}
}

// attempt tries to run the command on the tokenized input. tokens[0] is the
// command token, the rest are argument tokens.
//
// Returns matched=false with no side effects when the command token itself
// does not match: the command was not a candidate. Returns a ParseError
// when the command token matched but parsing or the handler failed. Any
// non-ParseError from the handler comes back as fatal, unchanged.
func (c *Command) attempt(ctx *Context, tokens []string) (matched bool, perr *ParseError, fatal error) {
	st := attemptState{confidence: initialConfidence}

	cmdArg, ok := c.grammar.Command.Match(tokens[0])
	if !ok {
		return false, nil, nil
	}

	// The command value is passed to the handler only when it carries
	// information: a pure alias match tells the handler nothing it does not
	// already know.
	var resolved []syntax.Arg
	if c.grammar.Command.FreeName != "" || !c.grammar.Command.Mandatory {
		resolved = append(resolved, cmdArg)
	}
	if c.grammar.Command.IsLiteral(tokens[0]) {
		// An explicit alias hit is strong evidence of user intent.
		st.confidence -= 3
	}

	args := tokens[1:]

	// Walk the argument parts while advancing a single-token lookahead over
	// the user's tokens. A part that fails to match consumes its token
	// anyway: one typo should contribute a diagnostic, not derail the rest
	// of the argument list.
	var buffered string
	haveBuffered := false
	next := 0
	for _, part := range c.grammar.Args {
		if !haveBuffered && next < len(args) {
			buffered = args[next]
			next++
			haveBuffered = true
		}
		if !haveBuffered && part.Mandatory {
			st.record(newMissingMandatory(part))
			break
		}
		token := ""
		if haveBuffered {
			token = buffered
		}
		arg, ok := part.Match(token)
		if !ok {
			st.record(newInvalidOption(part, token))
			haveBuffered = false
			continue
		}
		resolved = append(resolved, arg)
		if !arg.Empty() {
			// Real consumption; an optional skip keeps the token for the
			// next part.
			haveBuffered = false
			st.confidence--
		}
	}
	if haveBuffered {
		st.record(newRedundant(buffered))
	} else if next < len(args) {
		st.record(newRedundant(args[next]))
	}

	if st.first == nil {
		if err := c.handler(ctx, resolved); err != nil {
			var handlerErr *ParseError
			if !errors.As(err, &handlerErr) {
				return true, nil, err
			}
			st.record(handlerErr)
		}
	}

	if e := st.surface(); e != nil {
		return true, e, nil
	}
	return true, nil, nil
}
