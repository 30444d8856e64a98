package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#5F5FD7") // coach indigo
	accentColor  = lipgloss.Color("#FFA500")
	goodColor    = lipgloss.Color("#00AA00")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	ScoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(goodColor)

	SummaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	NoteStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true)
)

// KV is one line of the summary box
type KV struct {
	Key   string
	Value string
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Sonido Coach 🎙"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintNote prints a highlighted informational line
func PrintNote(w io.Writer, message string) {
	fmt.Fprintln(w, NoteStyle.Render(message))
}

// PrintSummary renders a title and key/value pairs in a rounded box
func PrintSummary(w io.Writer, title string, rows []KV) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Key))
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(title))
	for i, r := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(KeyStyle.Render(fmt.Sprintf("%-*s", width+1, r.Key+":")))
		sb.WriteString(" ")
		sb.WriteString(ValueStyle.Render(r.Value))
	}

	fmt.Fprintln(w, SummaryBox.Render(sb.String()))
}
