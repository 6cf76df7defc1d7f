package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// helpEntry is one row of the listing, in declaration order.
type helpEntry struct {
	syntax      string
	description string
}

// helpStyles carries the lipgloss styles of the listing. Zero-value styles
// render plain text, which is what NoColor selects.
type helpStyles struct {
	header lipgloss.Style
	syntax lipgloss.Style
}

func (a *App) styles() helpStyles {
	if a.opts.NoColor {
		return helpStyles{}
	}
	return helpStyles{
		header: lipgloss.NewStyle().Bold(true),
		syntax: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// renderHelp writes the two-column command listing. Regular entries are
// indented by two spaces; the empty-syntax entry, if any, closes the
// listing as a plain sentence.
func (a *App) renderHelp(w io.Writer) {
	styles := a.styles()
	tab := a.helpTab()

	fmt.Fprintln(w, styles.header.Render("Available commands:"))
	var noCommand *helpEntry
	for i := range a.entries {
		entry := &a.entries[i]
		if entry.syntax == "" {
			noCommand = entry
			continue
		}
		a.writeEntry(w, styles, entry, tab, "  ")
	}
	if noCommand != nil {
		a.writeEntry(w, styles, noCommand, tab, "")
	}
}

// helpTab computes the description column: longest syntax plus four,
// ignoring syntaxes that would push the column past MaxHelpIndent. Those
// entries wrap their description onto the next line instead.
func (a *App) helpTab() int {
	tab := 0
	for _, entry := range a.entries {
		width := runewidth.StringWidth(entry.syntax) + 4
		if width <= a.opts.MaxHelpIndent && width > tab {
			tab = width
		}
	}
	return tab
}

// writeEntry renders one listing row, wrapping the description at
// HelpWidth.
func (a *App) writeEntry(w io.Writer, styles helpStyles, entry *helpEntry, tab int, indent string) {
	description := entry.description
	syntaxWidth := runewidth.StringWidth(entry.syntax)

	var lines []string
	styledFirst := ""
	switch {
	case entry.syntax == "":
		// The no-command entry reads as a sentence.
		tab = 0
		description = "no command is given, " + description + "."
		lines = []string{"If"}
	case tab >= syntaxWidth+2:
		// The description fits beside the syntax with at least two spaces
		// of separation.
		lines = []string{entry.syntax + strings.Repeat(" ", tab-syntaxWidth-1)}
		styledFirst = entry.syntax
	default:
		// Too long for the column: description starts on the next line.
		lines = []string{entry.syntax, strings.Repeat(" ", max(tab-1, 0))}
		styledFirst = entry.syntax
	}

	first := true
	for _, word := range strings.Fields(description) {
		last := lines[len(lines)-1]
		if runewidth.StringWidth(last)+runewidth.StringWidth(word) >= a.opts.HelpWidth && !first {
			lines = append(lines, strings.Repeat(" ", tab)+word)
		} else {
			lines[len(lines)-1] = last + " " + word
		}
		first = false
	}

	for i, line := range lines {
		if i == 0 && styledFirst != "" && !a.opts.NoColor {
			// Style the syntax without disturbing the column padding.
			line = styles.syntax.Render(styledFirst) + line[len(styledFirst):]
		}
		fmt.Fprintln(w, indent+line)
	}
}
