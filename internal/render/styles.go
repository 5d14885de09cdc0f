// Package render provides console output for ctxreply: status lines, the
// welcome screen and generated replies.
package render

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	ColorCyan   = lipgloss.Color("12") // Headers
	ColorYellow = lipgloss.Color("11") // Warnings, logo
	ColorGreen  = lipgloss.Color("10") // Success indicator
	ColorRed    = lipgloss.Color("9")  // Error indicator
	ColorGray   = lipgloss.Color("8")  // Dim/secondary
)

const (
	SymbolSuccess       = "✓"
	SymbolError         = "✗"
	SymbolWarning       = "⚠"
	SymbolSystemMessage = "→"
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

	// DimStyle is used for hints and secondary information
	DimStyle = lipgloss.NewStyle().Foreground(ColorGray)

	SystemMessageStyle = lipgloss.NewStyle().Foreground(ColorGray)
)

// StyledSymbol returns a symbol with appropriate styling applied
func StyledSymbol(symbol string) string {
	switch symbol {
	case SymbolSuccess:
		return SuccessStyle.Render(symbol)
	case SymbolError:
		return ErrorStyle.Render(symbol)
	case SymbolWarning:
		return WarningStyle.Render(symbol)
	case SymbolSystemMessage:
		return SystemMessageStyle.Render(symbol)
	default:
		return symbol
	}
}
