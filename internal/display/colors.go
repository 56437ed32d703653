// Package display renders CLI output: colored status lines and tables
// for backup history, restore results, and statistics.
package display

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette applies semantic colors when the terminal supports them.
type Palette struct {
	enabled bool
	profile termenv.Profile

	success *color.Color
	warning *color.Color
	failure *color.Color
	muted   *color.Color
	header  *color.Color
}

// NewPalette creates a palette with terminal auto-detection.
func NewPalette() *Palette {
	enabled := detectColorSupport()
	if !enabled {
		color.NoColor = true
	}

	return &Palette{
		enabled: enabled,
		profile: termenv.ColorProfile(),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		muted:   color.New(color.FgHiBlack),
		header:  color.New(color.FgCyan, color.Bold),
	}
}

// detectColorSupport follows the usual conventions: a real terminal,
// no NO_COLOR, and FORCE_COLOR overriding everything.
func detectColorSupport() bool {
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// Enabled reports whether colors are being emitted.
func (p *Palette) Enabled() bool {
	return p.enabled
}

func (p *Palette) Success(text string) string { return p.success.Sprint(text) }
func (p *Palette) Warning(text string) string { return p.warning.Sprint(text) }
func (p *Palette) Failure(text string) string { return p.failure.Sprint(text) }
func (p *Palette) Muted(text string) string   { return p.muted.Sprint(text) }
func (p *Palette) Header(text string) string  { return p.header.Sprint(text) }

// Status colors a backup record status string.
func (p *Palette) Status(status string) string {
	switch status {
	case "completed":
		return p.Success(status)
	case "failed":
		return p.Failure(status)
	case "pending", "in_progress":
		return p.Warning(status)
	default:
		return status
	}
}
