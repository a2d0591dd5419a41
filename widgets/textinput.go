package widgets

import (
	"strings"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TextInput is a single-line editable field. With Mask set, the value is
// drawn as bullets so a token never appears on screen.
type TextInput struct {
	Prompt      string
	Placeholder string
	Mask        bool

	value []rune
}

// Value returns the current contents.
func (ti *TextInput) Value() string {
	return string(ti.value)
}

// SetValue replaces the contents.
func (ti *TextInput) SetValue(s string) {
	ti.value = []rune(s)
}

// Reset clears the contents.
func (ti *TextInput) Reset() {
	ti.value = ti.value[:0]
}

// Update applies an editing key to the field and reports whether it was consumed.
// Enter and Esc are left to the caller.
func (ti *TextInput) Update(key vaxis.Key) bool {
	switch {
	case key.Matches(vaxis.KeyBackspace):
		if len(ti.value) > 0 {
			ti.value = ti.value[:len(ti.value)-1]
		}
		return true
	case key.Matches('u', vaxis.ModCtrl):
		ti.Reset()
		return true
	case key.Matches(vaxis.KeyEnter), key.Matches(vaxis.KeyEsc), key.Matches(vaxis.KeyTab):
		return false
	case key.Text != "":
		ti.value = append(ti.value, []rune(key.Text)...)
		return true
	case key.Modifiers == 0 && key.Keycode >= ' ' && key.Keycode < 0x7f:
		ti.value = append(ti.value, key.Keycode)
		return true
	}
	return false
}

// Draw renders prompt, value (or placeholder) and a block cursor on one row.
// Long values scroll so the cursor stays visible.
func (ti *TextInput) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, ti)

	col := uint16(0)
	for _, ch := range ctx.Characters(ti.Prompt) {
		s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: vaxis.Style{Attribute: vaxis.AttrBold}})
		col += uint16(ch.Width)
	}

	if len(ti.value) == 0 && ti.Placeholder != "" {
		WriteText(&s, col, 0, int(ctx.Max.Width)-int(col), ti.Placeholder, vaxis.Style{Attribute: vaxis.AttrDim}, false)
		return s, nil
	}

	text := string(ti.value)
	if ti.Mask {
		text = strings.Repeat("•", len(ti.value))
	}
	chars := ctx.Characters(text)

	room := int(ctx.Max.Width) - int(col) - 1 // keep a cell for the cursor
	if room < 0 {
		room = 0
	}
	if len(chars) > room {
		chars = chars[len(chars)-room:]
	}
	for _, ch := range chars {
		s.WriteCell(col, 0, vaxis.Cell{Character: ch})
		col += uint16(ch.Width)
	}
	if col < ctx.Max.Width {
		s.WriteCell(col, 0, vaxis.Cell{
			Character: vaxis.Character{Grapheme: " ", Width: 1},
			Style:     vaxis.Style{Attribute: vaxis.AttrReverse},
		})
	}
	return s, nil
}
