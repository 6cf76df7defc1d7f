package dispatch

import (
	"fmt"

	"github.com/Jajasek/conch/internal/syntax"
)

// ErrorKind classifies a parse failure. Every kind is recoverable: it ends
// evaluation of the current candidate command, never the dispatch cycle.
type ErrorKind uint8

const (
	// KindInvalidOption: a mandatory part matched neither a literal
	// alternative nor the free slot.
	KindInvalidOption ErrorKind = iota

	// KindMissingMandatory: input tokens were exhausted before a mandatory
	// part was filled.
	KindMissingMandatory

	// KindRedundant: an input token remained after all parts were filled.
	KindRedundant

	// KindInvalidSyntax: a handler rejected a cross-argument dependency
	// (optionality that the grammar cannot express).
	KindInvalidSyntax

	// KindInvalidArgValue: a handler rejected the value captured by an
	// argument free slot.
	KindInvalidArgValue

	// KindInvalidCommandValue: a handler rejected the value captured by the
	// command part's free slot.
	KindInvalidCommandValue
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidOption:
		return "invalid option"
	case KindMissingMandatory:
		return "missing mandatory"
	case KindRedundant:
		return "redundant"
	case KindInvalidSyntax:
		return "invalid syntax"
	case KindInvalidArgValue:
		return "invalid argument value"
	case KindInvalidCommandValue:
		return "invalid command value"
	default:
		return "unknown"
	}
}

// baseWeight returns the evidence weight of the kind. Lower means stronger
// evidence that the failed command was the one the user intended.
func (k ErrorKind) baseWeight() int {
	switch k {
	case KindInvalidArgValue:
		return 1
	case KindInvalidCommandValue:
		return 2
	case KindInvalidOption:
		return 3
	default:
		return 4
	}
}

// ParseError reports why one candidate command rejected the input. The
// resolver ranks collected ParseErrors by Weight, ascending, so the most
// plausible diagnosis prints first.
type ParseError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the user-facing description.
	Message string

	// Weight orders diagnostics among failed candidates. Matchers surface
	// errors with the attempt's confidence penalty already folded in; the
	// value never affects which command runs.
	Weight int
}

// Error implements the error interface.
func (e *ParseError) Error() string { return e.Message }

// newInvalidOption reports a token that satisfies no alternative of a
// mandatory part.
func newInvalidOption(part syntax.Part, token string) *ParseError {
	return &ParseError{
		Kind:    KindInvalidOption,
		Message: fmt.Sprintf("Invalid option '%s', must be one of '%s'", token, part),
		Weight:  KindInvalidOption.baseWeight(),
	}
}

// newMissingMandatory reports input exhausted before a mandatory part.
func newMissingMandatory(part syntax.Part) *ParseError {
	return &ParseError{
		Kind:    KindMissingMandatory,
		Message: fmt.Sprintf("Missing mandatory argument '%s'", part),
		Weight:  KindMissingMandatory.baseWeight(),
	}
}

// newRedundant reports the first unconsumed trailing token.
func newRedundant(token string) *ParseError {
	return &ParseError{
		Kind:    KindRedundant,
		Message: fmt.Sprintf("Redundant argument '%s'", token),
		Weight:  KindRedundant.baseWeight(),
	}
}

// reasonSuffix formats the optional reason clause of handler-raised errors.
func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return ": " + reason
}

// NewInvalidSyntax is raised by handlers when the resolved arguments violate
// a dependency rule between parts, e.g. an option that makes a later
// optional part mandatory.
func NewInvalidSyntax(arg syntax.Arg, reason string) *ParseError {
	return &ParseError{
		Kind:    KindInvalidSyntax,
		Message: fmt.Sprintf("Invalid syntax at '%s'%s", arg, reasonSuffix(reason)),
		Weight:  KindInvalidSyntax.baseWeight(),
	}
}

// NewInvalidArgValue is raised by handlers when a free-slot argument value
// is unusable, e.g. not convertible to a number.
func NewInvalidArgValue(arg syntax.Arg, reason string) *ParseError {
	return &ParseError{
		Kind:    KindInvalidArgValue,
		Message: fmt.Sprintf("Invalid value '%s' of argument '%s'%s", arg, arg.Name, reasonSuffix(reason)),
		Weight:  KindInvalidArgValue.baseWeight(),
	}
}

// NewInvalidCommandValue is raised by handlers when the command part's
// free-slot value is unusable.
func NewInvalidCommandValue(arg syntax.Arg, reason string) *ParseError {
	return &ParseError{
		Kind:    KindInvalidCommandValue,
		Message: fmt.Sprintf("Invalid value '%s' of command '%s'%s", arg, arg.Name, reasonSuffix(reason)),
		Weight:  KindInvalidCommandValue.baseWeight(),
	}
}
