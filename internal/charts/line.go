package charts

import (
	"fmt"
	"html/template"
	"strings"
)

// LineOpts customises Line.
type LineOpts struct {
	Title       string
	Description string
	Stroke      string
	Fill        string
	ShowDots    bool
	Palette     Palette
}

// Line renders one series as a line with a shaded area underneath.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("charts: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("charts: labels length must match series")
	}
	f, err := newFrame(width, height, 0, 0, opts.Palette, series)
	if err != nil {
		return "", err
	}
	stroke := fallback(opts.Stroke, "#2563eb")
	fill := fallback(opts.Fill, "rgba(37,99,235,0.12)")

	x := func(i int) float64 {
		if len(series) == 1 {
			return f.pad + f.w/2
		}
		return f.pad + float64(i)*f.w/float64(len(series)-1)
	}
	var path strings.Builder
	for i, v := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			path.WriteByte(' ')
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, x(i), f.y(v))
	}

	var b strings.Builder
	f.open(&b, "line", fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend"))
	f.grid(&b)
	fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`, path.String(), x(len(series)-1), f.bottom(), x(0), f.bottom(), fill)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), stroke)
	if opts.ShowDots {
		for i, v := range series {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, x(i), f.y(v), stroke)
		}
	}
	for i, l := range labels {
		f.label(&b, x(i), l)
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
