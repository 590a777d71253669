// Package charts renders small inline SVG charts for the dashboard home.
package charts

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Default viewport.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 5
)

// Palette holds the colours shared by every chart.
type Palette struct {
	Axis string
	Grid string
}

func (p Palette) withDefaults() Palette {
	return Palette{Axis: fallback(p.Axis, "#475569"), Grid: fallback(p.Grid, "#cbd5e1")}
}

// frame is the plotting area inside the padding, scaled to [lo, hi].
type frame struct {
	width, height int
	pad           float64
	w, h          float64
	lo, hi        float64
	ticks         int
	palette       Palette
}

func newFrame(width, height int, pad float64, ticks int, palette Palette, values ...[]float64) (frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if pad <= 0 {
		pad = DefaultPadding
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := frame{width: width, height: height, pad: pad, ticks: ticks, palette: palette.withDefaults()}
	f.w = float64(width) - 2*pad
	f.h = float64(height) - 2*pad
	if f.w <= 0 || f.h <= 0 {
		return frame{}, fmt.Errorf("charts: viewport too small")
	}
	first := true
	for _, series := range values {
		for _, v := range series {
			if first {
				f.lo, f.hi = v, v
				first = false
				continue
			}
			f.lo = math.Min(f.lo, v)
			f.hi = math.Max(f.hi, v)
		}
	}
	f.lo = math.Min(f.lo, 0)
	f.hi = math.Max(f.hi, 0)
	if math.Abs(f.hi-f.lo) < 1e-9 {
		f.hi = f.lo + 1
	}
	return f, nil
}

// y maps a value to its vertical pixel position.
func (f frame) y(v float64) float64 {
	return f.pad + f.h - (v-f.lo)*f.h/(f.hi-f.lo)
}

func (f frame) bottom() float64 {
	return f.pad + f.h
}

func (f frame) open(b *strings.Builder, kind, title, desc string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, f.width, f.height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(title))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(desc))
}

func (f frame) grid(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		value := f.lo + (f.hi-f.lo)*ratio
		y := f.y(value)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, f.pad, y, f.pad+f.w, y, f.palette.Grid)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, f.pad-6, y+4, f.palette.Axis, formatTick(value))
	}
	zero := f.y(0)
	fmt.Fprintf(b, `<g stroke="%s" aria-hidden="true">`, f.palette.Axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.pad, f.pad, f.bottom())
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, zero, f.pad+f.w, zero)
	b.WriteString("</g>")
}

func (f frame) label(b *strings.Builder, x float64, text string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x, f.bottom()+14, f.palette.Axis, template.HTMLEscapeString(text))
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case math.Abs(v-math.Round(v)) < 1e-9:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
