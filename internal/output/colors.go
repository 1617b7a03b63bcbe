package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for the console report.
type ColorScheme struct {
	Title     *color.Color
	Label     *color.Color
	Value     *color.Color
	Success   *color.Color
	Warn      *color.Color
	Error     *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.FgCyan, color.Bold),
		Label:     color.New(color.FgYellow),
		Value:     color.New(color.FgWhite),
		Success:   color.New(color.FgGreen, color.Bold),
		Warn:      color.New(color.FgYellow, color.Bold),
		Error:     color.New(color.FgRed, color.Bold),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Warn.DisableColor()
	scheme.Error.DisableColor()
	scheme.Highlight.DisableColor()
	return scheme
}
