package views

import (
	"context"
	"fmt"
	"sync"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/list"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/dustin/go-humanize"
)

// PeerViewParams holds configuration for creating a PeerView.
type PeerViewParams struct {
	Service   bhs.NetworkServiceAPI
	PostEvent func(vaxis.Event)
}

// PeerView displays the peers the service is connected to.
type PeerView struct {
	service   bhs.NetworkServiceAPI
	postEvent func(vaxis.Event)

	mu      sync.Mutex
	cancel  context.CancelFunc
	mounted bool
	lc      lifecycle
	peers   []bhs.Peer

	list list.Dynamic
}

// NewPeerView creates a PeerView backed by the given params.
func NewPeerView(p PeerViewParams) *PeerView {
	pv := &PeerView{
		service:   p.Service,
		postEvent: p.PostEvent,
	}
	pv.list.DrawCursor = true
	pv.list.Builder = pv.buildItem
	return pv
}

// Mount fetches the peer list in the background. Only the first call on an
// instance has any effect.
func (pv *PeerView) Mount(ctx context.Context) bool {
	pv.mu.Lock()
	if pv.mounted {
		pv.mu.Unlock()
		return false
	}
	pv.mounted = true
	ctx, pv.cancel = context.WithCancel(ctx)
	pv.mu.Unlock()

	go func() {
		report(pv.postEvent, pv, PeerViewName, finishedWithin(ctx, pv.Load(ctx)))
	}()
	return true
}

// Unmount cancels the in-flight fetch, if any.
func (pv *PeerView) Unmount() {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.cancel != nil {
		pv.cancel()
	}
	pv.lc.stop()
}

// Load fetches peers from the service.
func (pv *PeerView) Load(ctx context.Context) error {
	pv.mu.Lock()
	reqCtx, id := pv.lc.begin(ctx)
	pv.mu.Unlock()

	peers, err := pv.service.Peers(reqCtx)
	if err != nil {
		err = fmt.Errorf("fetching peers: %w", err)
	}

	pv.mu.Lock()
	defer pv.mu.Unlock()
	if !pv.lc.finish(id, err) {
		return ErrSuperseded
	}
	if err != nil {
		pv.peers = nil
		return err
	}
	pv.peers = peers
	return nil
}

// Mounted reports whether Mount has been called.
func (pv *PeerView) Mounted() bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.mounted
}

// State returns the lifecycle of the peer list.
func (pv *PeerView) State() LoadState {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.lc.state
}

// ErrorText returns the message shown when the fetch failed.
func (pv *PeerView) ErrorText() string {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.lc.errText()
}

// Peers returns the currently loaded peers.
func (pv *PeerView) Peers() []bhs.Peer {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.peers
}

// ItemCount returns the number of loaded peers.
func (pv *PeerView) ItemCount() int {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return len(pv.peers)
}

func (pv *PeerView) buildItem(i uint, cursor uint) vxfw.Widget {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if int(i) >= len(pv.peers) {
		return nil
	}
	p := pv.peers[i]
	return richtext.New([]vaxis.Segment{
		{Text: fmt.Sprintf("%-40s", p.IP)},
		{Text: fmt.Sprintf("%6d", p.Port)},
	})
}

// Draw renders the peer table and its total, or the loading/error state.
func (pv *PeerView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	state, count, errText := pv.State(), pv.ItemCount(), pv.ErrorText()
	switch state {
	case StateIdle, StateLoading:
		return drawLoadingState(ctx, pv)
	case StateError:
		return drawErrorState(ctx, pv, errText)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, pv)

	// Header row
	if err := drawLine(ctx, &s, 0, []vaxis.Segment{
		{Text: fmt.Sprintf("%-40s%6s", "IP", "PORT"), Style: vaxis.Style{Attribute: vaxis.AttrBold}},
	}); err != nil {
		return vxfw.Surface{}, err
	}

	if ctx.Max.Height < 3 {
		return s, nil
	}

	// List, leaving the last row for the total
	listCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 2})
	listSurf, err := pv.list.Draw(listCtx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 1, listSurf)

	noun := "peers"
	if count == 1 {
		noun = "peer"
	}
	if err := drawLine(ctx, &s, int(ctx.Max.Height)-1, []vaxis.Segment{
		{Text: fmt.Sprintf("Total: %s %s", humanize.Comma(int64(count)), noun), Style: vaxis.Style{Attribute: vaxis.AttrDim}},
	}); err != nil {
		return vxfw.Surface{}, err
	}
	return s, nil
}

// HandleEvent delegates to the list widget for navigation.
func (pv *PeerView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	return pv.list.HandleEvent(ev, phase)
}
