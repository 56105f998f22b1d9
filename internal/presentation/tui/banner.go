package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`           _     _                 `, "#818cf8"},
	{`  _ __ ___| |___| |_ ___  _ __ ___ `, "#a78bfa"},
	{` | '__/ _ \ / __| __/ _ \| '__/ _ \`, "#c084fc"},
	{` | | |  __/ \__ \ || (_) | | |  __/`, "#e879f9"},
	{` |_|  \___|_|___/\__\___/|_|  \___|`, "#f472b6"},
}

// PrintBanner writes the relstore banner, coloured when w is a colour terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
