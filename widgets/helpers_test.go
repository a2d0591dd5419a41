package widgets_test

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Min: vxfw.Size{},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

func cellText(c vaxis.Cell) string {
	return c.Character.Grapheme
}

// rowText returns the graphemes of one surface row, with empty cells as spaces.
func rowText(buf []vaxis.Cell, width, row int) string {
	out := make([]byte, 0, width)
	for col := 0; col < width; col++ {
		g := cellText(buf[row*width+col])
		if g == "" {
			g = " "
		}
		out = append(out, g...)
	}
	return string(out)
}
