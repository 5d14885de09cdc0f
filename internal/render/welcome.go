package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// WelcomeInfo contains information to display in the welcome screen.
type WelcomeInfo struct {
	// Model is the configured fallback model name
	Model string
	// Server is the inference server base URL
	Server string
	// Version is the ctxreply version string
	Version string

	SaveCombo  string
	ReplyCombo string
	QuitCombo  string
}

// tips is the list of tips to display in the welcome screen.
// A "tip of the day" is selected based on the current date.
var tips = []string{
	"save the post once, then reply to as many comments as you like",
	"the saved post lives in memory only and is gone when you quit",
	"run ctxreply -history 10 to see your last replies",
	"run ctxreply -search <words> to find an old reply",
	"change hotkeys under hotkeys: in ~/.ctxreply/config.yaml",
	"set logLevel: debug in ~/.ctxreply/config.yaml for troubleshooting",
	"tail -f ~/.ctxreply/ctxreply.log to watch requests as they happen",
	"use -no-start if you manage the LM Studio server yourself",
	"CTXREPLY_MODEL overrides the fallback model for one run",
	"a smaller model answers faster; replies are only a few sentences",
}

var logo = []string{
	"      _        ",
	"  ___| |___  __",
	" / __| __\\ \\/ /",
	"| (__| |_ >  < ",
	" \\___|\\__/_/\\_\\",
}

// getTipOfTheDay returns a tip based on the current date.
// The same tip is shown for the entire day, changing at midnight.
func getTipOfTheDay() string {
	if len(tips) == 0 {
		return ""
	}
	now := time.Now()
	daysSinceEpoch := now.Year()*365 + int(now.Month())*31 + now.Day()
	return tips[daysSinceEpoch%len(tips)]
}

// RenderWelcome renders the welcome screen to the given writer: the logo on
// the left and configuration and hotkeys on the right.
func RenderWelcome(w io.Writer, info WelcomeInfo, termWidth int) {
	titleStyle := lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	logoStyle := lipgloss.NewStyle().Foreground(ColorYellow)
	labelStyle := lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle := lipgloss.NewStyle().Foreground(ColorYellow)
	dimStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	logoWidth := lipgloss.Width(strings.Join(logo, "\n"))
	minGap := 4
	maxInfoWidth := 48

	var infoLines []string
	infoLines = append(infoLines, titleStyle.Render("Social Media Context Reply"))

	if info.Version != "" && info.Version != "dev" {
		infoLines = append(infoLines, labelStyle.Render("version: ")+valueStyle.Render(info.Version))
	} else if info.Version == "dev" {
		infoLines = append(infoLines, labelStyle.Render("version: ")+dimStyle.Render("development"))
	}

	infoLines = append(infoLines, labelStyle.Render("server:  ")+valueOrDim(info.Server, valueStyle, dimStyle))
	infoLines = append(infoLines, labelStyle.Render("model:   ")+valueOrDim(info.Model, valueStyle, dimStyle))

	hotkeyLines := []string{
		labelStyle.Render("1. copy your post, press ") + valueStyle.Render(info.SaveCombo),
		labelStyle.Render("2. copy a comment, press ") + valueStyle.Render(info.ReplyCombo),
		labelStyle.Render("3. quit with ") + valueStyle.Render(info.QuitCombo),
	}

	numLines := len(logo)
	if len(infoLines) > numLines {
		numLines = len(infoLines)
	}

	infoWidth := termWidth - logoWidth - minGap
	if infoWidth > maxInfoWidth {
		infoWidth = maxInfoWidth
	}
	tip := getTipOfTheDay()

	var output strings.Builder
	output.WriteString("\n")

	if infoWidth < 20 {
		// Terminal too narrow, just show info without logo
		for _, line := range infoLines {
			output.WriteString(line + "\n")
		}
	} else {
		gap := strings.Repeat(" ", minGap)
		for i := 0; i < numLines; i++ {
			logoLine := strings.Repeat(" ", logoWidth)
			if i < len(logo) {
				logoLine = logoStyle.Render(logo[i])
			}
			var infoLine string
			if i < len(infoLines) {
				infoLine = infoLines[i]
			}
			output.WriteString(logoLine + gap + infoLine + "\n")
		}
	}

	output.WriteString("\n")
	for _, line := range hotkeyLines {
		output.WriteString(line + "\n")
	}

	output.WriteString("\n")
	if tip != "" {
		output.WriteString(dimStyle.Render("tip: "+tip) + "\n")
	}
	output.WriteString("\n")

	fmt.Fprint(w, output.String())
}

func valueOrDim(value string, valueStyle, dimStyle lipgloss.Style) string {
	if value == "" {
		return dimStyle.Render("not configured")
	}
	return valueStyle.Render(value)
}
