package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quantlens/chartlens/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	storyStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(76)

	supportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	resistanceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	pivotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	watchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

func confidenceStyle(c models.Confidence) lipgloss.Style {
	switch c {
	case models.ConfidenceHigh:
		return supportStyle
	case models.ConfidenceLow:
		return resistanceStyle
	default:
		return watchStyle
	}
}

func levelLine(name string, style lipgloss.Style, lv *models.PriceLevel) string {
	if lv == nil {
		return fmt.Sprintf("  %s %s", style.Render(name+":"), mutedStyle.Render("no clear level"))
	}
	return fmt.Sprintf("  %s %s (%s)", style.Render(name+":"), models.FormatPrice(lv.Price), lv.Label)
}

// DisplayRead prints a validated chart read.
func DisplayRead(read *models.ChartRead) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Chart read: %s, confidence %s",
		strings.ToUpper(string(read.Regime)),
		confidenceStyle(read.Confidence).Render(string(read.Confidence)))))
	fmt.Println(storyStyle.Render(read.Story))
	fmt.Println()
	fmt.Println(levelLine("support", supportStyle, read.Support))
	fmt.Println(levelLine("resistance", resistanceStyle, read.Resistance))
	fmt.Println(levelLine("pivot", pivotStyle, read.Pivot))
	fmt.Printf("  %s %s\n", mutedStyle.Render("current:"), models.FormatPrice(read.CurrentPrice))
	fmt.Println()
	fmt.Printf("  %s %s\n", watchStyle.Render("above:"), read.WatchAbove)
	fmt.Printf("  %s %s\n", watchStyle.Render("below:"), read.WatchBelow)
	if read.ConfidenceReason != "" {
		fmt.Printf("  %s %s\n", mutedStyle.Render("why:"), read.ConfidenceReason)
	}
	fmt.Println()
}
