package views

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
)

var errorStyle = vaxis.Style{Foreground: vaxis.IndexColor(1)} // red

// drawLoadingState renders a "Loading..." message in the view.
func drawLoadingState(ctx vxfw.DrawContext, owner vxfw.Widget) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, []vaxis.Segment{
		{Text: "Loading...", Style: vaxis.Style{Attribute: vaxis.AttrDim}},
	})
}

// drawErrorState renders an error message in place of the view's content.
func drawErrorState(ctx vxfw.DrawContext, owner vxfw.Widget, msg string) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, errorSegments(msg))
}

func errorSegments(msg string) []vaxis.Segment {
	return []vaxis.Segment{
		{Text: "Error: ", Style: vaxis.Style{Foreground: vaxis.IndexColor(1), Attribute: vaxis.AttrBold}},
		{Text: msg, Style: errorStyle},
	}
}

func drawMessage(ctx vxfw.DrawContext, owner vxfw.Widget, segs []vaxis.Segment) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, owner)
	label := richtext.New(segs)
	labelSurf, err := label.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, labelSurf)
	return s, nil
}

// drawLine renders segments as a single-row child of s at row. Rows outside
// the context are skipped.
func drawLine(ctx vxfw.DrawContext, s *vxfw.Surface, row int, segs []vaxis.Segment) error {
	if row < 0 || row >= int(ctx.Max.Height) {
		return nil
	}
	line := richtext.New(segs)
	surf, err := line.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return err
	}
	s.AddChild(0, row, surf)
	return nil
}
