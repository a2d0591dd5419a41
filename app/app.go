package app

import (
	"context"
	"log"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/bhs-tui/internal"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/deevus/bhs-tui/views"
	"github.com/deevus/bhs-tui/widgets"
)

// Routes served by the App. The root path redirects to RouteHeader.
const (
	RouteRoot     = "/"
	RouteHeader   = "/header"
	RoutePeer     = "/peer"
	RouteWebhooks = "/webhooks"
)

// Params holds configuration for creating an App.
type Params struct {
	Services   *internal.Services
	Session    *internal.Session
	ServerName string
	BaseURL    string
}

// page is a routed data view.
type page interface {
	vxfw.Widget
	HandleEvent(vaxis.Event, vxfw.EventPhase) (vxfw.Command, error)
	Mount(ctx context.Context) bool
	Unmount()
}

// inputCapturer is implemented by views that temporarily own the keyboard.
type inputCapturer interface {
	CapturingInput() bool
}

// App is the root vxfw widget for bhs-tui. Nothing but the login prompt is
// reachable until a token has been entered; after that it routes between the
// header, peer and webhook views, creating a fresh view on every navigation.
type App struct {
	services   *internal.Services
	session    *internal.Session
	serverName string
	baseURL    string

	ctx    context.Context
	cancel context.CancelFunc

	tabBar    *widgets.TabBar
	login     *views.LoginView
	path      string
	current   page
	lastErr   string
	postEvent func(vaxis.Event)
}

// New creates the root App widget. A nil Session starts a new, logged-out one.
func New(p Params) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		services:   p.Services,
		session:    p.Session,
		serverName: p.ServerName,
		baseURL:    p.BaseURL,
		ctx:        ctx,
		cancel:     cancel,
		path:       RouteHeader,
		tabBar: widgets.NewTabBar([]widgets.Tab{
			{Label: "Headers", Path: RouteHeader},
			{Label: "Peers", Path: RoutePeer},
			{Label: "Webhooks", Path: RouteWebhooks},
		}),
	}
	if a.session == nil {
		a.session = internal.NewSession()
	}
	a.tabBar.Title = "bhs-tui"
	if a.serverName != "" {
		a.tabBar.Title += " [" + a.serverName + "]"
	}
	a.login = views.NewLoginView(a.serverName, a.session.Login)
	a.session.OnChange(a.onSessionChange)
	if a.session.LoggedIn() {
		a.mount()
	}
	return a
}

// SetPostEvent sets the function used to post events to the vaxis event loop.
// Must be called before the first view is mounted.
func (a *App) SetPostEvent(fn func(vaxis.Event)) {
	a.postEvent = fn
}

// Close cancels every in-flight request.
func (a *App) Close() {
	if a.current != nil {
		a.current.Unmount()
	}
	a.cancel()
}

// ServerName returns the configured server profile name.
func (a *App) ServerName() string {
	return a.serverName
}

// IsLoggedIn reports whether the session gate is open.
func (a *App) IsLoggedIn() bool {
	return a.session.LoggedIn()
}

// Path returns the current route.
func (a *App) Path() string {
	return a.path
}

// ActiveTab returns the index of the highlighted navigation tab.
func (a *App) ActiveTab() int {
	return a.tabBar.Active()
}

// CurrentView returns the mounted view, or nil while logged out.
func (a *App) CurrentView() vxfw.Widget {
	if a.current == nil {
		return nil
	}
	return a.current
}

// LastError returns the most recent failure reported by a view, if any.
func (a *App) LastError() string {
	return a.lastErr
}

// Navigate switches to path. The root path redirects to the header view and
// unknown paths are ignored. Navigating to the current route keeps its view.
// While logged out the route is only remembered.
func (a *App) Navigate(path string) bool {
	if path == "" || path == RouteRoot {
		path = RouteHeader
	}
	if !a.tabBar.SetActivePath(path) {
		return false
	}
	if path == a.path && a.current != nil {
		return true
	}
	a.path = path
	if a.session.LoggedIn() {
		a.mount()
	}
	return true
}

// Reload replaces the current view with a fresh instance, refetching its data.
func (a *App) Reload() {
	if a.session.LoggedIn() {
		a.mount()
	}
}

// Logout forgets the token and returns to the login prompt.
func (a *App) Logout() {
	a.session.Logout()
}

func (a *App) newView(path string) page {
	switch path {
	case RoutePeer:
		return views.NewPeerView(views.PeerViewParams{Service: a.services.Network, PostEvent: a.postEvent})
	case RouteWebhooks:
		return views.NewWebhookView(views.WebhookViewParams{Service: a.services.Webhooks, PostEvent: a.postEvent})
	default:
		return views.NewHeaderView(views.HeaderViewParams{Service: a.services.Chain, PostEvent: a.postEvent})
	}
}

func (a *App) mount() {
	if a.current != nil {
		a.current.Unmount()
	}
	a.lastErr = ""
	a.current = a.newView(a.path)
	a.current.Mount(a.ctx)
}

func (a *App) onSessionChange(state internal.SessionState) {
	log.Printf("[app] session %s", state)
	switch state {
	case internal.LoggedIn:
		a.mount()
	case internal.LoggedOut:
		if a.current != nil {
			a.current.Unmount()
			a.current = nil
		}
		a.lastErr = ""
		a.login = views.NewLoginView(a.serverName, a.session.Login)
	}
}

func (a *App) capturingInput() bool {
	c, ok := a.current.(inputCapturer)
	return ok && c.CapturingInput()
}

// Draw renders the login prompt, or the navigation bar, the current view and
// a status line.
func (a *App) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	if !a.session.LoggedIn() || a.current == nil {
		return a.login.Draw(ctx)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)

	// Tab bar (1 row)
	tabCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1})
	tabSurf, err := a.tabBar.Draw(tabCtx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, tabSurf)

	if ctx.Max.Height < 3 {
		return s, nil
	}

	// Current view (between tab bar and status line)
	viewCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 2})
	viewSurf, err := a.current.Draw(viewCtx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 1, viewSurf)

	// Status line
	row := ctx.Max.Height - 1
	dim := vaxis.Style{Attribute: vaxis.AttrDim}
	help := "1-3/tab switch  r reload  x logout  q quit"
	if a.lastErr != "" {
		widgets.WriteText(&s, 0, row, int(ctx.Max.Width), a.lastErr, vaxis.Style{Foreground: vaxis.IndexColor(1)}, false)
		return s, nil
	}
	left := a.path
	if a.baseURL != "" {
		left += "  " + a.baseURL
	}
	widgets.WriteText(&s, 0, row, int(ctx.Max.Width), left, dim, false)
	widgets.WriteText(&s, 0, row, int(ctx.Max.Width), help, dim, true)
	return s, nil
}

// CaptureEvent handles global keybindings before views process them.
// While logged out only ctrl+c is global, so any character can be typed
// into the token.
func (a *App) CaptureEvent(ev vaxis.Event) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if key.Matches('c', vaxis.ModCtrl) {
		return vxfw.QuitCmd{}, nil
	}
	if !a.session.LoggedIn() || a.capturingInput() {
		return nil, nil
	}

	switch {
	case key.Matches('q'):
		return vxfw.QuitCmd{}, nil
	case key.Matches('r'):
		a.Reload()
	case key.Matches('x'):
		a.Logout()
	case key.Matches('1'):
		a.Navigate(RouteHeader)
	case key.Matches('2'):
		a.Navigate(RoutePeer)
	case key.Matches('3'):
		a.Navigate(RouteWebhooks)
	case key.Matches(vaxis.KeyTab):
		a.Navigate(a.tabBar.Next())
	case key.Matches(vaxis.KeyTab, vaxis.ModShift):
		a.Navigate(a.tabBar.Prev())
	default:
		return nil, nil
	}
	return vxfw.ConsumeAndRedraw(), nil
}

// HandleEvent delegates to the login prompt or the current view, and handles
// custom events.
func (a *App) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case views.ViewLoaded:
		if a.current == nil || ev.Source != vxfw.Widget(a.current) {
			return vxfw.RedrawCmd{}, nil
		}
		a.lastErr = ""
		if ev.Err != nil {
			a.lastErr = ev.Err.Error()
			if bhs.IsUnauthorized(ev.Err) {
				a.lastErr += " (x to log out and enter another token)"
			}
		}
		return vxfw.RedrawCmd{}, nil
	}

	if !a.session.LoggedIn() || a.current == nil {
		return a.login.HandleEvent(ev, phase)
	}
	return a.current.HandleEvent(ev, phase)
}
