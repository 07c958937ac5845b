package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the gaphor ASCII banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"                    _", "#34d399"},
		{"   __ _  __ _ _ __ | |__   ___  _ __", "#2dd4bf"},
		{"  / _` |/ _` | '_ \\| '_ \\ / _ \\| '__|", "#22d3ee"},
		{" | (_| | (_| | |_) | | | | (_) | |", "#38bdf8"},
		{"  \\__, |\\__,_| .__/|_| |_|\\___/|_|", "#60a5fa"},
		{"  |___/      |_|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
