package utils

import "strings"

// ColorToCalloutType maps a Readwise highlight colour to an Obsidian callout
// type. Unknown or empty colours render as quotes.
func ColorToCalloutType(color string) string {
	switch strings.ToLower(strings.TrimSpace(color)) {
	case "green":
		return "note"
	case "pink", "red":
		return "warning"
	case "blue":
		return "info"
	case "purple":
		return "tip"
	case "orange":
		return "important"
	default:
		return "quote"
	}
}
