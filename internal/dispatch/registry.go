package dispatch

// Registry is an ordered, immutable collection of commands. Declaration
// order is dispatch priority: the resolver tries commands front to back and
// runs the first full match.
type Registry struct {
	commands []*Command
}

// NewRegistry builds a registry from commands in declaration order.
func NewRegistry(commands ...*Command) *Registry {
	owned := make([]*Command, len(commands))
	copy(owned, commands)
	for i, c := range owned {
		c.order = i
	}
	return &Registry{commands: owned}
}

// Commands returns the commands in declaration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.commands) }

// Find returns the first command with the given normalized syntax string,
// or nil. Intended for help rendering and tests.
func (r *Registry) Find(grammar string) *Command {
	for _, c := range r.commands {
		if c.Syntax() == grammar {
			return c
		}
	}
	return nil
}
