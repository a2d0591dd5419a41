package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Tab is one entry of a TabBar: a label shown to the user and the route it links to.
type Tab struct {
	Label string
	Path  string
}

// TabBar is the navigation chrome: one link per route, the current one highlighted.
// It holds no state of its own beyond which tab is current.
type TabBar struct {
	tabs   []Tab
	active int
	Title  string // optional, drawn bold before the tabs
}

// NewTabBar creates a TabBar with the given tabs. Active defaults to 0.
func NewTabBar(tabs []Tab) *TabBar {
	return &TabBar{tabs: tabs}
}

// Active returns the currently active tab index.
func (tb *TabBar) Active() int {
	return tb.active
}

// ActivePath returns the route of the active tab.
func (tb *TabBar) ActivePath() string {
	if len(tb.tabs) == 0 {
		return ""
	}
	return tb.tabs[tb.active].Path
}

// SetActive sets the active tab index. Out-of-range values are ignored.
func (tb *TabBar) SetActive(i int) {
	if i >= 0 && i < len(tb.tabs) {
		tb.active = i
	}
}

// SetActivePath highlights the tab linking to path. Unknown paths are ignored.
func (tb *TabBar) SetActivePath(path string) bool {
	for i, t := range tb.tabs {
		if t.Path == path {
			tb.active = i
			return true
		}
	}
	return false
}

// Next returns the path of the tab after the active one, wrapping around.
func (tb *TabBar) Next() string {
	return tb.tabs[(tb.active+1)%len(tb.tabs)].Path
}

// Prev returns the path of the tab before the active one, wrapping around.
func (tb *TabBar) Prev() string {
	return tb.tabs[(tb.active-1+len(tb.tabs))%len(tb.tabs)].Path
}

// Draw renders the tab bar as a single row: " Title  1 Headers | 2 Peers | 3 Webhooks "
// Active tab is rendered with reverse video.
func (tb *TabBar) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, tb)

	col := uint16(0)
	put := func(text string, style vaxis.Style) {
		for _, ch := range ctx.Characters(text) {
			if col >= ctx.Max.Width {
				return
			}
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
			col += uint16(ch.Width)
		}
	}

	if tb.Title != "" {
		put(" "+tb.Title+"  ", vaxis.Style{Attribute: vaxis.AttrBold})
	}

	for i, t := range tb.tabs {
		if i > 0 {
			put(" | ", vaxis.Style{Attribute: vaxis.AttrDim})
		}

		style := vaxis.Style{}
		if i == tb.active {
			style.Attribute |= vaxis.AttrReverse
		}
		put(" "+string(rune('1'+i))+" "+t.Label+" ", style)
	}

	return s, nil
}
