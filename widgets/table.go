package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TableColumn defines a column in a Table.
type TableColumn struct {
	Width      int         // fixed character width
	AlignRight bool        // right-align text within the column
	Style      vaxis.Style // applied to all cells in this column
}

// Table renders rows of text with fixed-width columns.
// Each row is a []string matching the Columns slice.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
	Header  []string // optional header row rendered with AttrDim
	Gap     int      // spaces between columns (default 1)
}

// WriteText writes s into surf at (col, row) clipped to maxWidth.
// If alignRight is set, text is padded on the left.
func WriteText(surf *vxfw.Surface, col, row uint16, maxWidth int, s string, style vaxis.Style, alignRight bool) {
	chars := vaxis.Characters(s)

	displayWidth := 0
	for _, ch := range chars {
		displayWidth += ch.Width
	}

	offset := 0
	if alignRight && displayWidth < maxWidth {
		offset = maxWidth - displayWidth
	}

	pos := offset
	for _, ch := range chars {
		if pos+ch.Width > maxWidth {
			break
		}
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{
			Character: ch,
			Style:     style,
		})
		pos += ch.Width
	}
}

// WriteRow lays cells out across cols on a single surface row.
func WriteRow(surf *vxfw.Surface, row uint16, cols []TableColumn, gap int, cells []string, styles []vaxis.Style) {
	col := 0
	for i, c := range cols {
		if col >= int(surf.Size.Width) {
			break
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		style := c.Style
		if i < len(styles) {
			style = styles[i]
		}
		width := c.Width
		if col+width > int(surf.Size.Width) {
			width = int(surf.Size.Width) - col
		}
		WriteText(surf, uint16(col), row, width, text, style, c.AlignRight)
		col += c.Width + gap
	}
}

// Draw renders the table header (if set) and all rows.
func (t *Table) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}

	totalRows := len(t.Rows)
	if t.Header != nil {
		totalRows++
	}

	height := uint16(totalRows)
	if height > ctx.Max.Height {
		height = ctx.Max.Height
	}

	s := vxfw.NewSurface(ctx.Max.Width, height, t)
	row := uint16(0)

	if t.Header != nil && row < height {
		dim := make([]vaxis.Style, len(t.Columns))
		for i := range dim {
			dim[i] = vaxis.Style{Attribute: vaxis.AttrDim}
		}
		WriteRow(&s, row, t.Columns, gap, t.Header, dim)
		row++
	}

	for _, cells := range t.Rows {
		if row >= height {
			break
		}
		WriteRow(&s, row, t.Columns, gap, cells, nil)
		row++
	}

	return s, nil
}
