package syntax

import (
	"fmt"
	"slices"
	"strings"
)

// Arg is one resolved argument value: the token that satisfied a part,
// together with the free-slot name that captured it. Name is empty when the
// token matched a literal alternative. The zero Arg means the part was
// skipped as optional and consumed nothing.
type Arg struct {
	// Value is the resolved token text.
	Value string

	// Name is the free-slot name that captured Value, or empty for a
	// literal match or a skip.
	Name string
}

// Empty reports whether the argument carries no value. Free slots only
// capture nonempty tokens, so an empty value always means an optional part
// was skipped (or an empty command part matched the empty token).
func (a Arg) Empty() bool { return a.Value == "" }

// String returns the resolved value.
func (a Arg) String() string { return a.Value }

// Part is a single whitespace-delimited grammar unit. A part is satisfied
// by an exact literal match, by free-slot capture of any nonempty token,
// or, only if optional, by absence.
type Part struct {
	raw string

	// Mandatory is true unless the part was enclosed in square brackets.
	Mandatory bool

	// Options are the literal alternatives, in declaration order. An empty
	// part has the empty string as its only option.
	Options []string

	// FreeName is the name of the free slot, or empty if the part has none.
	FreeName string
}

// ParsePart compiles one grammar token. Optionality is stripped first, then
// the remainder is split on '|' into literal alternatives; an alternative
// enclosed in angle brackets becomes the free slot. More than one free slot
// is a validation error.
func ParsePart(token string) (Part, error) {
	p := Part{raw: token, Mandatory: !enclosed(token, '[', ']')}
	if !p.Mandatory {
		token = token[1 : len(token)-1]
	}
	for _, option := range strings.Split(token, "|") {
		if !enclosed(option, '<', '>') {
			p.Options = append(p.Options, option)
			continue
		}
		name := option[1 : len(option)-1]
		if name == "" {
			return Part{}, fmt.Errorf("part %q: %w", p.raw, ErrEmptyFreeSlot)
		}
		if p.FreeName != "" {
			return Part{}, fmt.Errorf("part %q: %w", p.raw, ErrMultipleFreeSlots)
		}
		p.FreeName = name
	}
	return p, nil
}

// enclosed reports whether s begins with open and ends with close.
func enclosed(s string, open, close byte) bool {
	return len(s) >= 2 && s[0] == open && s[len(s)-1] == close
}

// String returns the part as written in the grammar.
func (p Part) String() string { return p.raw }

// IsLiteral reports whether token equals one of the literal alternatives.
func (p Part) IsLiteral(token string) bool {
	return slices.Contains(p.Options, token)
}

// Match decides whether token satisfies the part, in strict priority:
// literal equality first, then free-slot capture of a nonempty token, then
// an optional skip that consumes nothing. The literal always wins over the
// free slot, so matching is deterministic even when they overlap. Returns
// false when the part is mandatory and nothing applies.
func (p Part) Match(token string) (Arg, bool) {
	if p.IsLiteral(token) {
		return Arg{Value: token}, true
	}
	if p.FreeName != "" && token != "" {
		return Arg{Value: token, Name: p.FreeName}, true
	}
	if !p.Mandatory {
		return Arg{}, true
	}
	return Arg{}, false
}

// Grammar is a compiled syntax string: the command part followed by the
// ordered argument parts. Grammars are immutable once parsed.
type Grammar struct {
	// Command matches the first input token.
	Command Part

	// Args match the remaining tokens, in order.
	Args []Part

	str string
}

// Parse compiles a full grammar string. The first whitespace-delimited
// token names the command, the rest are argument parts. The empty string
// compiles to the empty command part with no arguments.
func Parse(s string) (Grammar, error) {
	fields := strings.Fields(s)
	var g Grammar
	var err error
	if len(fields) == 0 {
		g.Command, err = ParsePart("")
		return g, err
	}
	if g.Command, err = ParsePart(fields[0]); err != nil {
		return Grammar{}, err
	}
	parts := []string{g.Command.String()}
	for _, field := range fields[1:] {
		part, err := ParsePart(field)
		if err != nil {
			return Grammar{}, err
		}
		g.Args = append(g.Args, part)
		parts = append(parts, part.String())
	}
	g.str = strings.Join(parts, " ")
	return g, nil
}

// String returns the normalized grammar string (single spaces between
// parts).
func (g Grammar) String() string { return g.str }
