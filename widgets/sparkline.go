package widgets

import (
	"math"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Block characters for sparkline rendering (8 levels).
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a 1-row graph of a series using block characters,
// scaled between the series minimum and maximum.
type Sparkline struct {
	values []float64
	Style  vaxis.Style
}

// NewSparkline creates an empty Sparkline drawn in cyan.
func NewSparkline() *Sparkline {
	return &Sparkline{Style: vaxis.Style{Foreground: vaxis.IndexColor(6)}}
}

// Set replaces the series, oldest value first.
func (sl *Sparkline) Set(values []float64) {
	sl.values = append(sl.values[:0], values...)
}

// Count returns the number of values in the series.
func (sl *Sparkline) Count() int {
	return len(sl.values)
}

// Level returns the block index (0-7) value v maps to within [minV, maxV].
func Level(v, minV, maxV float64) int {
	if maxV > minV {
		level := int(math.Round((v - minV) / (maxV - minV) * 7))
		return max(0, min(level, 7))
	}
	if maxV > 0 {
		return 4 // flat non-zero line
	}
	return 0
}

// Draw renders the sparkline as a single row, keeping the newest values
// when the series is wider than the surface.
func (sl *Sparkline) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sl)

	vals := sl.values
	if len(vals) == 0 {
		return s, nil
	}

	width := int(ctx.Max.Width)
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	minV, maxV := vals[0], vals[0]
	for _, v := range vals[1:] {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	for i, v := range vals {
		ch := sparkBlocks[Level(v, minV, maxV)]
		for _, c := range ctx.Characters(string(ch)) {
			s.WriteCell(uint16(i), 0, vaxis.Cell{Character: c, Style: sl.Style})
		}
	}

	return s, nil
}
