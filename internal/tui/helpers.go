package tui

import "strings"

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// swapped returns a copy of list with elements i and j exchanged.
func swapped[E any](list []E, i, j int) []E {
	out := append([]E(nil), list...)
	out[i], out[j] = out[j], out[i]
	return out
}

func rule(width int) string {
	if width < 1 {
		width = 1
	}
	return strings.Repeat("─", width)
}
