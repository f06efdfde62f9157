package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(20)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func printTitle(s string) {
	fmt.Println(titleStyle.Render(s))
}

func printKV(key string, value any) {
	fmt.Printf("%s %v\n", keyStyle.Render(key), value)
}

func printWarn(s string) {
	fmt.Println(warnStyle.Render(s))
}

// printRow prints fixed-width columns for simple table output.
func printRow(widths []int, cells ...string) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		w := 12
		if i < len(widths) {
			w = widths[i]
		}
		parts[i] = lipgloss.NewStyle().Width(w).Render(c)
	}
	fmt.Println(strings.Join(parts, " "))
}
