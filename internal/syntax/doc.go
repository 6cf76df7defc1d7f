// Package syntax compiles command grammar strings into matchable parts.
//
// A grammar string consists of whitespace-delimited parts. The first part
// names the command, the rest describe its arguments:
//
//	greet once|n-times [<n>]
//
// Each part is either mandatory, or optional when enclosed in square
// brackets. Within a part, '|' separates literal alternatives, and an
// alternative enclosed in angle brackets is the free slot: it captures any
// nonempty token under the given name. A part may declare at most one free
// slot.
//
// The empty grammar string compiles to a command part that matches only the
// empty token, which the dispatcher produces for blank input lines.
//
// Grammar strings are trusted, integrator-authored input. Parse and
// ParsePart validate them at registration time; end-user input never
// reaches them.
package syntax
