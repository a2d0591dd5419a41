package views

import (
	"context"
	"errors"
	"fmt"
	"log"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Names identifying each view in ViewLoaded events.
const (
	HeaderViewName  = "header"
	PeerViewName    = "peer"
	WebhookViewName = "webhook"
)

// ViewLoaded is a custom vaxis event posted when a view finishes a fetch.
// It is sent from background goroutines via PostEvent to notify the UI.
// Source is the view instance that ran the fetch.
type ViewLoaded struct {
	Source vxfw.Widget
	View   string
	Err    error
}

// ErrSuperseded is returned by a fetch whose response was dropped because a
// newer request was issued, or the view was unmounted, before it arrived.
var ErrSuperseded = errors.New("superseded by a newer request")

// finishedWithin reports err unless ctx, the mounted view's context, has been
// cancelled, in which case the outcome belongs to a view that is gone.
func finishedWithin(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrSuperseded
	}
	return err
}

// report logs the outcome of a background fetch and posts ViewLoaded.
// Superseded fetches are dropped silently.
func report(postEvent func(vaxis.Event), source vxfw.Widget, view string, err error) {
	if errors.Is(err, ErrSuperseded) {
		return
	}
	if err != nil {
		log.Printf("[%s] %v", view, err)
	}
	if postEvent != nil {
		postEvent(ViewLoaded{Source: source, View: view, Err: err})
	}
}

// LoadState is the lifecycle of one fetch owned by a view.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// lifecycle tracks one independent fetch. Starting a new request cancels the
// previous one and bumps seq; only the response carrying the latest seq is
// applied. Callers hold the owning view's mutex.
type lifecycle struct {
	state  LoadState
	err    error
	seq    uint64
	cancel context.CancelFunc
}

// begin supersedes any in-flight request and returns the new request's context and id.
func (l *lifecycle) begin(parent context.Context) (context.Context, uint64) {
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.seq++
	l.cancel = cancel
	l.state = StateLoading
	l.err = nil
	return ctx, l.seq
}

// finish records the outcome of request id. It returns false, changing
// nothing, when a newer request has been issued since.
func (l *lifecycle) finish(id uint64, err error) bool {
	if id != l.seq {
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if err != nil {
		l.state = StateError
		l.err = err
	} else {
		l.state = StateLoaded
	}
	return true
}

// stop cancels any in-flight request; its response will be dropped.
func (l *lifecycle) stop() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
	if l.state == StateLoading {
		l.state = StateIdle
	}
}

// errText is the message shown in place of a section whose fetch failed.
func (l *lifecycle) errText() string {
	if l.err == nil {
		return ""
	}
	return l.err.Error()
}
