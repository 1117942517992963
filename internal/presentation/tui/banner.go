package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"   __ _                                        ",
	"  / _| | _____      _____ __ _ _ ____   ____ _ ___",
	" | |_| |/ _ \\ \\ /\\ / / __/ _` | '_ \\ \\ / / _` / __|",
	" |  _| | (_) \\ V  V / (_| (_| | | | \\ V / (_| \\__ \\",
	" |_| |_|\\___/ \\_/\\_/ \\___\\__,_|_| |_|\\_/ \\__,_|___/",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

// PrintBanner writes the flowcanvas banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
