package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner followed by a one-line subtitle.
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`       _                     _               _   `, "#34d399"},
		{`   ___| |__   __ _ _ __ ___| |__   ___  ___| |_ `, "#2dd4bf"},
		{`  / __| '_ \ / _' | '__/ __| '_ \ / _ \/ _ \ __|`, "#22d3ee"},
		{` | (__| | | | (_| | |  \__ \ | | |  __/  __/ |_ `, "#38bdf8"},
		{`  \___|_| |_|\__,_|_|  |___/_| |_|\___|\___|\__|`, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
