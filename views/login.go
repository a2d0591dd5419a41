package views

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/bhs-tui/widgets"
)

// LoginView prompts for the API token. Whatever is submitted, including an
// empty string, is handed to OnLogin unvalidated.
type LoginView struct {
	Server  string
	OnLogin func(token string)

	input widgets.TextInput
}

// NewLoginView creates a LoginView for the named server.
func NewLoginView(server string, onLogin func(token string)) *LoginView {
	lv := &LoginView{Server: server, OnLogin: onLogin}
	lv.input.Prompt = "Token: "
	lv.input.Mask = true
	return lv
}

// Value returns the token typed so far.
func (lv *LoginView) Value() string {
	return lv.input.Value()
}

// HandleEvent edits the token and submits it on enter.
func (lv *LoginView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if key.Matches(vaxis.KeyEnter) {
		token := lv.input.Value()
		lv.input.Reset()
		if lv.OnLogin != nil {
			lv.OnLogin(token)
		}
		return vxfw.ConsumeAndRedraw(), nil
	}
	if lv.input.Update(key) {
		return vxfw.ConsumeAndRedraw(), nil
	}
	return nil, nil
}

// Draw renders the prompt.
func (lv *LoginView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, lv)
	bold := vaxis.Style{Attribute: vaxis.AttrBold}
	dim := vaxis.Style{Attribute: vaxis.AttrDim}

	title := "Block Headers Service"
	if lv.Server != "" {
		title += " (" + lv.Server + ")"
	}
	if err := drawLine(ctx, &s, 0, []vaxis.Segment{{Text: title, Style: bold}}); err != nil {
		return vxfw.Surface{}, err
	}
	if err := drawLine(ctx, &s, 1, []vaxis.Segment{
		{Text: "Enter the API token to log in. It is kept in memory only.", Style: dim},
	}); err != nil {
		return vxfw.Surface{}, err
	}

	if ctx.Max.Height > 3 {
		inputSurf, err := lv.input.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 3, inputSurf)
	}
	if ctx.Max.Height > 5 {
		if err := drawLine(ctx, &s, 5, []vaxis.Segment{
			{Text: "[enter] log in  [ctrl+c] quit", Style: dim},
		}); err != nil {
			return vxfw.Surface{}, err
		}
	}
	return s, nil
}
