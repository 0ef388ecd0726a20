// Package export renders saved runs for use outside the terminal.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/grabsim/internal/sim"
)

var ErrTooFewSamples = errors.New("export: need at least two samples")

// Views names the projections Trajectory understands, as horizontal and
// vertical axes.
var Views = map[string][2]int{
	"side":  {2, 1},
	"front": {0, 1},
	"top":   {0, 2},
}

const (
	bodyColor = "#00ccff"
	handColor = "#ff00ff"
	padding   = 0.1
)

type point struct{ X, Y float64 }

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) add(p point) {
	b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
	b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
}

// Trajectory writes an SVG of the body's path projected onto view, with the
// hand's path drawn while it held the body and a marker where it let go.
func Trajectory(w io.Writer, samples []sim.Sample, view string, width, height int) error {
	axes, ok := Views[view]
	if !ok {
		return fmt.Errorf("export: unknown view %q", view)
	}
	if len(samples) < 2 {
		return ErrTooFewSamples
	}

	project := func(v [3]float64) point { return point{v[axes[0]], v[axes[1]]} }

	body := make([]point, len(samples))
	var hand [][]point
	var release *point
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i, s := range samples {
		body[i] = project(s.Position)
		b.add(body[i])

		if s.Held {
			if i == 0 || !samples[i-1].Held {
				hand = append(hand, nil)
			}
			p := project(s.Hand)
			hand[len(hand)-1] = append(hand[len(hand)-1], p)
			b.add(p)
		} else if i > 0 && samples[i-1].Held && release == nil {
			release = &body[i]
		}
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * padding
	b.minY -= rangeY * padding
	rangeX *= 1 + 2*padding
	rangeY *= 1 + 2*padding

	toScreen := func(p point) (float64, float64) {
		return (p.X - b.minX) / rangeX * float64(width),
			float64(height) - (p.Y-b.minY)/rangeY*float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, seg := range hand {
		writePath(&sb, seg, toScreen, handColor, "4 3")
	}
	writePath(&sb, body, toScreen, bodyColor, "")
	if release != nil {
		x, y := toScreen(*release)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", x, y, handColor)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writePath(sb *strings.Builder, pts []point, toScreen func(point) (float64, float64), color, dash string) {
	if len(pts) < 2 {
		return
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5"`, color)
	if dash != "" {
		fmt.Fprintf(sb, ` stroke-dasharray="%s"`, dash)
	}
	sb.WriteString(` d="M`)
	for i, p := range pts {
		x, y := toScreen(p)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}
