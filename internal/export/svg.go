package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/bhsim/internal/sim"
	"github.com/san-kum/bhsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

type SVGOptions struct {
	Scale       float64
	PointRadius float64
	PointColor  string
	GridColor   string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Scale:       1,
		PointRadius: 1.5,
		PointColor:  "#ffffff",
		GridColor:   "#ff00ff",
	}
}

// SnapshotSVG writes the points of snap, and its node rectangles when it
// carries a grid, as an SVG of the w x h domain. Domain y grows downwards,
// as on screen.
func SnapshotSVG(out io.Writer, snap *sim.Snapshot, w, h float64, opt SVGOptions) error {
	if opt.Scale <= 0 {
		opt.Scale = 1
	}
	s := opt.Scale
	var sb strings.Builder

	fmt.Fprintf(&sb, svgHeader, w*s, h*s, w*s, h*s)

	if snap.HasGrid() {
		fmt.Fprintf(&sb, "<g fill=\"none\" stroke=\"%s\" stroke-width=\"0.5\">\n", opt.GridColor)
		for r := range snap.Rects() {
			fmt.Fprintf(&sb, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\"/>\n",
				r.X*s, r.Y*s, r.W*s, r.H*s)
		}
		sb.WriteString("</g>\n")
	}

	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", opt.PointColor)
	for _, p := range snap.Points {
		fmt.Fprintf(&sb, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\"/>\n", p.X*s, p.Y*s, opt.PointRadius)
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(out, sb.String())
	return err
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.PixelSize()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
