package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/reflow/wordwrap"
)

const bannerWidth = 40

// Console writes user-facing status lines. It is safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewConsole returns a Console writing to w. Replies are wrapped at width
// columns; width <= 0 disables wrapping.
func NewConsole(w io.Writer, width int) *Console {
	return &Console{w: w, width: width}
}

func (c *Console) Info(format string, args ...any) {
	c.line(StyledSymbol(SymbolSystemMessage), fmt.Sprintf(format, args...))
}

func (c *Console) Success(format string, args ...any) {
	c.line(StyledSymbol(SymbolSuccess), fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...any) {
	c.line(StyledSymbol(SymbolWarning), WarningStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Error(format string, args ...any) {
	c.line(StyledSymbol(SymbolError), ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

// Hint prints an indented secondary line under the previous message.
func (c *Console) Hint(format string, args ...any) {
	c.line(" ", DimStyle.Render(fmt.Sprintf(format, args...)))
}

// Progress prints s without a trailing newline.
func (c *Console) Progress(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, s)
}

func (c *Console) Newline() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w)
}

// Banner prints a title and body lines between two rules.
func (c *Console) Banner(title string, lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := HeaderStyle.Render(strings.Repeat("=", bannerWidth))
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, rule)
	fmt.Fprintln(c.w, HeaderStyle.Render(title))
	for _, line := range lines {
		fmt.Fprintln(c.w, line)
	}
	fmt.Fprintln(c.w, rule)
	fmt.Fprintln(c.w)
}

// Reply prints a generated reply under a header, wrapped to the console width.
func (c *Console) Reply(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.width > 0 {
		text = wordwrap.String(text, c.width)
	}
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, SuccessStyle.Bold(true).Render(">>> REPLY COPIED TO CLIPBOARD <<<"))
	fmt.Fprintln(c.w, text)
	fmt.Fprintln(c.w)
}

func (c *Console) line(symbol string, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", symbol, msg)
}
