package charts

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Series is one named set of bars.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// BarOpts customises Bars.
type BarOpts struct {
	Title       string
	Description string
	Palette     Palette
}

var defaultColors = []string{"#0ea5e9", "#f97316", "#22c55e", "#a855f7"}

// Bars renders grouped bars, one group per label and one bar per series.
func Bars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("charts: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("charts: labels required")
	}
	values := make([][]float64, len(series))
	for i, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("charts: series %q length must match labels", s.Label)
		}
		values[i] = s.Values
	}
	f, err := newFrame(width, height, 0, 0, opts.Palette, values...)
	if err != nil {
		return "", err
	}

	group := f.w / float64(len(labels))
	bar := group / float64(len(series)+1)
	zero := f.y(0)

	var b strings.Builder
	f.open(&b, "bar", fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Grouped comparison"))
	f.grid(&b)
	for gi, label := range labels {
		left := f.pad + float64(gi)*group + bar/2
		for si, s := range series {
			top := math.Min(f.y(s.Values[gi]), zero)
			h := math.Abs(f.y(s.Values[gi]) - zero)
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"></rect>`,
				left+float64(si)*bar, top, bar, h, color(s, si),
				template.HTMLEscapeString(s.Label), template.HTMLEscapeString(label))
		}
		f.label(&b, f.pad+float64(gi)*group+group/2, label)
	}

	legendX := f.pad
	legendY := math.Max(f.pad-12, 12)
	for si, s := range series {
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, legendX, legendY-8, color(s, si))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, legendX+14, legendY, f.palette.Axis, template.HTMLEscapeString(s.Label))
		legendX += 90
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func color(s Series, index int) string {
	return fallback(s.Color, defaultColors[index%len(defaultColors)])
}
