package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(goodColor).
			Bold(true)

	helpHintStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// EnvVar documents an environment variable that has no matching flag
type EnvVar struct {
	Name string
	Help string
}

// generalGroup collects flags declared without a group tag
const generalGroup = "General"

// StyledHelpPrinter renders help with flags grouped by their kong group
// tag, followed by the extra environment variables
func StyledHelpPrinter(env ...EnvVar) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		w := ctx.Stdout
		model := ctx.Model

		fmt.Fprintln(w, TitleStyle.Render("Sonido Coach 🎙"))
		if model.Help != "" {
			fmt.Fprintln(w, NoteStyle.Render(model.Help))
		}

		section(w, "Usage")
		usage := model.Name + " [flags]"
		for _, arg := range model.Node.Positional {
			usage += " " + arg.Summary()
		}
		fmt.Fprintln(w, "  "+usage)
		for _, arg := range model.Node.Positional {
			fmt.Fprintf(w, "  %s  %s\n", helpFlagStyle.Render(arg.Summary()), arg.Help)
		}

		order, groups := groupFlags(model.Node.Flags)
		for _, title := range order {
			section(w, title)
			for _, f := range groups[title] {
				fmt.Fprintln(w, "  "+flagLine(f))
			}
		}

		if len(env) > 0 {
			section(w, "Environment")
			for _, e := range env {
				fmt.Fprintf(w, "  %s  %s\n", helpFlagStyle.Render("$"+e.Name), e.Help)
			}
		}

		fmt.Fprintln(w)
		return nil
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, helpSectionStyle.Render(title+":"))
}

// groupFlags buckets visible flags by group title in declaration order
func groupFlags(flags []*kong.Flag) ([]string, map[string][]*kong.Flag) {
	var order []string
	groups := make(map[string][]*kong.Flag)

	for _, f := range flags {
		if f.Hidden {
			continue
		}
		title := generalGroup
		if f.Group != nil && f.Group.Title != "" {
			title = f.Group.Title
		}
		if _, seen := groups[title]; !seen {
			order = append(order, title)
		}
		groups[title] = append(groups[title], f)
	}
	return order, groups
}

func flagLine(f *kong.Flag) string {
	name := "--" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, %s", f.Short, name)
	}
	if !f.IsBool() {
		placeholder := f.PlaceHolder
		if placeholder == "" {
			placeholder = f.Name
		}
		name += "=" + strings.ToUpper(placeholder)
	}

	var hints []string
	if !f.IsBool() && f.Default != "" {
		hints = append(hints, "default: "+f.Default)
	}
	for _, e := range f.Envs {
		hints = append(hints, "$"+e)
	}

	line := helpFlagStyle.Render(name) + "  " + f.Help
	if len(hints) > 0 {
		line += " " + helpHintStyle.Render("("+strings.Join(hints, ", ")+")")
	}
	return line
}
