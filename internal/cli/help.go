package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Catppuccin Mocha color palette
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands, ALLOW
	colorYellow  = lipgloss.Color("#f9e2af") // Flags, WARN
	colorRed     = lipgloss.Color("#f38ba8") // BLOCK
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
	colorBase    = lipgloss.Color("#1e1e2e") // Background
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	blockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	allowStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorBase).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

func showQuickReference(w io.Writer) {
	width := clampWidth(detectWidth())
	useUnicode := supportsUnicode()

	border := lipgloss.RoundedBorder()
	if !useUnicode {
		border = lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}
	}

	container := boxStyle.Copy().Border(border).Width(width)

	titleText := " SAFEHOOK QUICK REFERENCE · Agent Command Guard "
	titleRendered := gradientText(titleText, []lipgloss.Color{colorMauve, colorBlue})
	if !useUnicode {
		titleRendered = "SAFEHOOK QUICK REFERENCE - Agent Command Guard"
	}
	title := titleStyle.Copy().Width(width - 4).Align(lipgloss.Center).Render(titleRendered)

	setup := renderSection(useUnicode, "🔷 SETUP (once per project)", []string{
		bullet("safehook hook install", "register in .claude/settings.json"),
		bullet("safehook hook install --global", "register for every project"),
		bullet("safehook hook status", "check installation and rule hash"),
	})

	checking := renderSection(useUnicode, "🛡️ CHECKING COMMANDS", []string{
		bullet("safehook check \"rm -rf ./build\"", "classify without running"),
		bullet("safehook hook test \"chmod 777 x.sh\" -j", "show the hook decision as JSON"),
		bullet("safehook rules list", "rules in evaluation order"),
		bullet("safehook history --event blocked", "recorded decisions"),
	})

	timestamps := renderSection(useUnicode, "🕒 TIMESTAMPS", []string{
		bullet("safehook timestamp", "Last updated: <date time> JST"),
		bullet("safehook timestamp iso|date|time|current", "other formats"),
		bullet("safehook mcp serve", "serve the formats as MCP tools"),
	})

	configuration := renderSection(useUnicode, "🔶 CONFIGURATION", []string{
		bullet("safehook config", "effective settings"),
		bullet("safehook config set hook.fail_open false", "block when the check itself fails"),
		bullet("safehook config set timestamp.timezone UTC --global", "change the clock"),
	})

	outcomes := outcomeLegend(useUnicode)
	flags := flagLegend(useUnicode)
	footer := footerLegend(useUnicode)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		setup,
		checking,
		timestamps,
		configuration,
		outcomes,
		flags,
		footer,
	)

	fmt.Fprintln(w, container.Render(content))
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	// fall back to environment or default
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func supportsUnicode() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	locale := strings.ToLower(strings.Join([]string{
		os.Getenv("LC_ALL"),
		os.Getenv("LC_CTYPE"),
		os.Getenv("LANG"),
	}, " "))
	if strings.Contains(termEnv, "dumb") {
		return false
	}
	return strings.Contains(locale, "utf-8") || strings.Contains(locale, "utf8")
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 || !supportsUnicode() {
		return text
	}
	runes := []rune(text)
	segments := len(colors)
	if segments == 1 || len(runes) <= 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		idx := i * (segments - 1) / (len(runes) - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(colors[idx]).Render(string(r)))
	}
	return b.String()
}

func bullet(command, desc string) string {
	return commandStyle.Render("  "+command) + mutedStyle.Render("  "+desc)
}

func renderSection(useUnicode bool, title string, lines []string) string {
	if !useUnicode {
		// strip the leading icon for ASCII terminals
		if _, rest, ok := strings.Cut(title, " "); ok {
			title = rest
		}
	}
	header := sectionStyle.Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func outcomeLegend(useUnicode bool) string {
	block := "BLOCK (exit 2)"
	warn := "WARN (exit 0)"
	allow := "ALLOW (exit 0)"
	header := "🎯 OUTCOMES"
	if useUnicode {
		block = "🔴 " + block
		warn = "🟡 " + warn
		allow = "🟢 " + allow
	} else {
		header = "OUTCOMES"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(header),
		fmt.Sprintf("  %s   %s   %s", blockStyle.Render(block), warnStyle.Render(warn), allowStyle.Render(allow)),
	)
}

func flagLegend(useUnicode bool) string {
	prefix := "🚩 GLOBAL FLAGS"
	if !useUnicode {
		prefix = "FLAGS"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(prefix),
		flagStyle.Render("  -j, --json")+mutedStyle.Render("              structured output"),
		flagStyle.Render("  -o, --output <fmt>")+mutedStyle.Render("      text, json or yaml"),
		flagStyle.Render("  -C, --project <dir>")+mutedStyle.Render("     override project path"),
		flagStyle.Render("  -c, --config <file>")+mutedStyle.Render("     project config file"),
		flagStyle.Render("  -v, --verbose")+mutedStyle.Render("           debug logging"),
	)
}

func footerLegend(useUnicode bool) string {
	help := "safehook <command> --help"
	if !useUnicode {
		return mutedStyle.Render("HELP: " + help)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mutedStyle.Render("HELP: "), commandStyle.Render(help),
	)
}
