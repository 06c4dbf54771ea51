package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// oneLine collapses whitespace so multi-line content fits a row
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// gradientStart maps the first stop of a Tailwind gradient ("from-purple-500
// to-pink-500") to a terminal color
func gradientStart(classes string) lipgloss.Color {
	for _, class := range strings.Fields(classes) {
		if !strings.HasPrefix(class, "from-") {
			continue
		}
		name := strings.TrimPrefix(class, "from-")
		if i := strings.LastIndex(name, "-"); i > 0 {
			name = name[:i]
		}
		if c, ok := tailwind[name]; ok {
			return c
		}
	}
	return Primary
}

var tailwind = map[string]lipgloss.Color{
	"red":     "#EF4444",
	"orange":  "#F97316",
	"amber":   "#F59E0B",
	"yellow":  "#EAB308",
	"green":   "#22C55E",
	"emerald": "#10B981",
	"teal":    "#14B8A6",
	"cyan":    "#06B6D4",
	"blue":    "#3B82F6",
	"indigo":  "#6366F1",
	"purple":  "#A855F7",
	"pink":    "#EC4899",
}
