package charts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{100, 200, 150}, []string{"Jan", "Feb", "Mar"}, LineOpts{
		Title:    "Signups",
		ShowDots: true,
	})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "<path")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Contains(t, out, `aria-labelledby="signups-line-title signups-line-desc"`)
}

func TestLineRejectsBadInput(t *testing.T) {
	_, err := Line(400, 200, nil, nil, LineOpts{})
	assert.Error(t, err)
	_, err = Line(400, 200, []float64{1}, []string{"a", "b"}, LineOpts{})
	assert.Error(t, err)
	_, err = Line(40, 40, []float64{1}, []string{"a"}, LineOpts{})
	assert.Error(t, err)
}

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []Series{
		{Label: "Signups", Values: []float64{5, 6}},
		{Label: "Deals", Values: []float64{3, -1}},
	}, []string{"Jan", "Feb"}, BarOpts{Title: "Activity"})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	// four bars plus two legend swatches
	assert.Equal(t, 6, strings.Count(out, "<rect"))
	assert.Contains(t, out, "Deals")
}

func TestBarsEscapesLabels(t *testing.T) {
	html, err := Bars(420, 220, []Series{{Label: "<b>", Values: []float64{1}}}, []string{"<script>"}, BarOpts{})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
	assert.NotContains(t, string(html), "<b>")
}

func TestBarsLengthMismatch(t *testing.T) {
	_, err := Bars(420, 220, []Series{{Label: "a", Values: []float64{1, 2}}}, []string{"x"}, BarOpts{})
	assert.Error(t, err)
}

func TestFormatTick(t *testing.T) {
	assert.Equal(t, "1.5k", formatTick(1500))
	assert.Equal(t, "2.0M", formatTick(2_000_000))
	assert.Equal(t, "7", formatTick(7))
	assert.Equal(t, "0.5", formatTick(0.5))
}
