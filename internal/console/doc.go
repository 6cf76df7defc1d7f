// Package console runs the interactive read-dispatch loop.
//
// An App is built from an explicit registration table: one grammar string,
// description and handler per command. The app appends the exit and help
// builtins (syntax and list position are configurable; a "-" syntax
// disables the builtin), compiles everything into a dispatch registry, and
// then reads one line per cycle from its input, resolving each against the
// registry until the exit handler stops the loop or input ends.
//
// The help builtin renders a two-column listing: syntax left, description
// right, aligned to the longest syntax up to a configured cap; longer
// syntaxes push their description onto the following line. Descriptions
// word-wrap at the configured width. Styling uses lipgloss and degrades to
// plain text off-terminal or when colors are disabled.
package console
