package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/list"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/deevus/bhs-tui/widgets"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentAdds bounds the POSTs issued for one bulk add.
const maxConcurrentAdds = 4

// WebhookViewParams holds configuration for creating a WebhookView.
type WebhookViewParams struct {
	Service   bhs.WebhookServiceAPI
	PostEvent func(vaxis.Event)
}

// WebhookView lists webhook subscriptions and adds or deletes them.
// Every mutation is followed by a full refetch of the list.
type WebhookView struct {
	service   bhs.WebhookServiceAPI
	postEvent func(vaxis.Event)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	mounted bool
	lc      lifecycle
	hooks   []bhs.Webhook

	// Outcome of the most recent add or delete, shown on the status line.
	status    string
	statusErr bool
	pending   int

	adding bool
	input  widgets.TextInput
	list   list.Dynamic
}

// NewWebhookView creates a WebhookView backed by the given params.
func NewWebhookView(p WebhookViewParams) *WebhookView {
	wv := &WebhookView{
		service:   p.Service,
		postEvent: p.PostEvent,
	}
	wv.input.Prompt = "URL: "
	wv.input.Placeholder = "https://example.com/hook (separate several with spaces)"
	wv.list.DrawCursor = true
	wv.list.Builder = wv.buildItem
	return wv
}

// Mount fetches the webhook list in the background. Only the first call on
// an instance has any effect.
func (wv *WebhookView) Mount(ctx context.Context) bool {
	wv.mu.Lock()
	if wv.mounted {
		wv.mu.Unlock()
		return false
	}
	wv.mounted = true
	wv.ctx, wv.cancel = context.WithCancel(ctx)
	wv.mu.Unlock()

	wv.run(wv.FetchWebhooks)
	return true
}

// Unmount cancels the in-flight list fetch and any pending add or delete.
// Their outcomes are no longer reported.
func (wv *WebhookView) Unmount() {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	if wv.cancel != nil {
		wv.cancel()
	}
	wv.lc.stop()
}

// FetchWebhooks replaces the list with the service's current webhooks.
func (wv *WebhookView) FetchWebhooks(ctx context.Context) error {
	wv.mu.Lock()
	reqCtx, id := wv.lc.begin(ctx)
	wv.mu.Unlock()

	hooks, err := wv.service.List(reqCtx)
	if err != nil {
		err = fmt.Errorf("fetching webhooks: %w", err)
	}

	wv.mu.Lock()
	defer wv.mu.Unlock()
	if !wv.lc.finish(id, err) {
		return ErrSuperseded
	}
	if err != nil {
		wv.hooks = nil
		return err
	}
	wv.hooks = hooks
	return nil
}

// ParseWebhookURLs splits input on whitespace, dropping duplicates while
// keeping the first occurrence's position. Blank input yields a single empty
// URL so the server decides whether it is acceptable.
func ParseWebhookURLs(input string) []string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return []string{""}
	}
	seen := make(map[string]bool, len(fields))
	urls := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		urls = append(urls, f)
	}
	return urls
}

// AddWebhook registers every URL in input, then refetches the list.
// Several URLs are posted concurrently; one failing does not stop the rest.
func (wv *WebhookView) AddWebhook(ctx context.Context, input string) error {
	urls := ParseWebhookURLs(input)

	wv.beginMutation()
	errs := make([]error, len(urls))
	var g errgroup.Group
	g.SetLimit(maxConcurrentAdds)
	for i, u := range urls {
		g.Go(func() error {
			if err := wv.service.Add(ctx, u); err != nil {
				errs[i] = fmt.Errorf("adding webhook %s: %w", u, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	err := errors.Join(errs...)

	if err != nil {
		wv.endMutation(err.Error(), true)
	} else if len(urls) == 1 {
		wv.endMutation("Added "+urls[0], false)
	} else {
		wv.endMutation(fmt.Sprintf("Added %d webhooks", len(urls)), false)
	}
	return wv.refetchAfter(ctx, err)
}

// DeleteWebhook removes the webhook registered under url, then refetches the list.
func (wv *WebhookView) DeleteWebhook(ctx context.Context, url string) error {
	wv.beginMutation()
	err := wv.service.Delete(ctx, url)
	if err != nil {
		err = fmt.Errorf("deleting webhook %s: %w", url, err)
		wv.endMutation(err.Error(), true)
	} else {
		wv.endMutation("Deleted "+url, false)
	}
	return wv.refetchAfter(ctx, err)
}

// refetchAfter refetches the list and returns the mutation's error, or the
// refetch's when the mutation succeeded.
func (wv *WebhookView) refetchAfter(ctx context.Context, mutationErr error) error {
	fetchErr := wv.FetchWebhooks(ctx)
	if mutationErr != nil {
		return mutationErr
	}
	if errors.Is(fetchErr, ErrSuperseded) {
		return nil
	}
	return fetchErr
}

func (wv *WebhookView) beginMutation() {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	wv.pending++
	wv.status = ""
	wv.statusErr = false
}

func (wv *WebhookView) endMutation(msg string, isErr bool) {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	wv.pending--
	wv.status = msg
	wv.statusErr = isErr
}

func (wv *WebhookView) setStatus(msg string, isErr bool) {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	wv.status = msg
	wv.statusErr = isErr
}

// DeleteSelected deletes the webhook under the cursor in the background.
func (wv *WebhookView) DeleteSelected() bool {
	cursor := int(wv.list.Cursor())
	wv.mu.Lock()
	if cursor >= len(wv.hooks) {
		wv.mu.Unlock()
		return false
	}
	url := wv.hooks[cursor].URL
	wv.mu.Unlock()

	wv.run(func(ctx context.Context) error { return wv.DeleteWebhook(ctx, url) })
	return true
}

func (wv *WebhookView) run(fn func(context.Context) error) {
	wv.mu.Lock()
	ctx := wv.ctx
	wv.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		report(wv.postEvent, wv, WebhookViewName, finishedWithin(ctx, fn(ctx)))
	}()
}

// Mounted reports whether Mount has been called.
func (wv *WebhookView) Mounted() bool {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.mounted
}

// State returns the lifecycle of the webhook list.
func (wv *WebhookView) State() LoadState {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.lc.state
}

// ErrorText returns the message shown when the list fetch failed.
func (wv *WebhookView) ErrorText() string {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.lc.errText()
}

// Status returns the outcome of the last mutation and whether it failed.
func (wv *WebhookView) Status() (string, bool) {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.status, wv.statusErr
}

// Webhooks returns the currently loaded webhooks.
func (wv *WebhookView) Webhooks() []bhs.Webhook {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.hooks
}

// CapturingInput reports whether the URL prompt is open. While it is, keys
// belong to the prompt rather than to global shortcuts.
func (wv *WebhookView) CapturingInput() bool {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	return wv.adding
}

func formatEmitTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

var webhookColumns = []widgets.TableColumn{
	{Width: 40},
	{Width: 7},
	{Width: 7, AlignRight: true},
	{Width: 12},
	{Width: 16},
	{Width: 16},
}

func (wv *WebhookView) buildItem(i uint, cursor uint) vxfw.Widget {
	wv.mu.Lock()
	defer wv.mu.Unlock()
	if int(i) >= len(wv.hooks) {
		return nil
	}
	h := wv.hooks[i]

	activeStyle := vaxis.Style{Foreground: vaxis.IndexColor(2)} // green
	active := "yes"
	if !h.Active {
		activeStyle.Foreground = vaxis.IndexColor(1) // red
		active = "no"
	}
	errStyle := vaxis.Style{}
	if h.ErrorsCount > 0 {
		errStyle.Foreground = vaxis.IndexColor(3) // yellow
	}

	return richtext.New([]vaxis.Segment{
		{Text: fmt.Sprintf("%-40s ", h.URL)},
		{Text: fmt.Sprintf("%-7s ", active), Style: activeStyle},
		{Text: fmt.Sprintf("%7d ", h.ErrorsCount), Style: errStyle},
		{Text: fmt.Sprintf("%-12s ", h.LastEmitStatus)},
		{Text: fmt.Sprintf("%-16s ", formatEmitTime(h.LastEmitTimestamp))},
		{Text: formatEmitTime(h.CreatedAt), Style: vaxis.Style{Attribute: vaxis.AttrDim}},
	})
}

// Draw renders the webhook table, the status line and the add prompt.
func (wv *WebhookView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	wv.mu.Lock()
	state, errText := wv.lc.state, wv.lc.errText()
	count := len(wv.hooks)
	status, statusErr, pending, adding := wv.status, wv.statusErr, wv.pending, wv.adding
	wv.mu.Unlock()

	switch state {
	case StateIdle:
		return drawLoadingState(ctx, wv)
	case StateError:
		// The prompt stays usable so a failed list does not block adding.
		if !adding {
			return drawErrorState(ctx, wv, errText)
		}
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, wv)
	bold := vaxis.Style{Attribute: vaxis.AttrBold}
	dim := vaxis.Style{Attribute: vaxis.AttrDim}

	widgets.WriteRow(&s, 0, webhookColumns, 1,
		[]string{"URL", "ACTIVE", "ERRORS", "LAST STATUS", "LAST EMIT", "CREATED"},
		[]vaxis.Style{bold, bold, bold, bold, bold, bold})

	if ctx.Max.Height < 4 {
		return s, nil
	}
	bodyH := ctx.Max.Height - 3

	switch {
	case state == StateLoading && count == 0:
		if err := drawLine(ctx, &s, 1, []vaxis.Segment{{Text: "Loading...", Style: dim}}); err != nil {
			return vxfw.Surface{}, err
		}
	case state == StateError:
		if err := drawLine(ctx, &s, 1, errorSegments(errText)); err != nil {
			return vxfw.Surface{}, err
		}
	case count == 0:
		if err := drawLine(ctx, &s, 1, []vaxis.Segment{{Text: "No webhooks registered", Style: dim}}); err != nil {
			return vxfw.Surface{}, err
		}
	default:
		listSurf, err := wv.list.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: bodyH}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 1, listSurf)
	}

	// Status line
	statusRow := int(ctx.Max.Height) - 2
	switch {
	case pending > 0:
		if err := drawLine(ctx, &s, statusRow, []vaxis.Segment{{Text: "Saving...", Style: dim}}); err != nil {
			return vxfw.Surface{}, err
		}
	case statusErr:
		if err := drawLine(ctx, &s, statusRow, errorSegments(status)); err != nil {
			return vxfw.Surface{}, err
		}
	case status != "":
		if err := drawLine(ctx, &s, statusRow, []vaxis.Segment{
			{Text: status, Style: vaxis.Style{Foreground: vaxis.IndexColor(2)}},
		}); err != nil {
			return vxfw.Surface{}, err
		}
	}

	// Prompt or key help
	promptRow := int(ctx.Max.Height) - 1
	if adding {
		wv.mu.Lock()
		inputSurf, err := wv.input.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		wv.mu.Unlock()
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, promptRow, inputSurf)
		return s, nil
	}
	if err := drawLine(ctx, &s, promptRow, []vaxis.Segment{
		{Text: "[a] add  [d] delete selected", Style: dim},
	}); err != nil {
		return vxfw.Surface{}, err
	}
	return s, nil
}

// HandleEvent drives the add prompt while it is open; otherwise it handles
// the add/delete keys and delegates the rest to the list widget.
func (wv *WebhookView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return wv.list.HandleEvent(ev, phase)
	}

	wv.mu.Lock()
	if wv.adding {
		switch {
		case key.Matches(vaxis.KeyEnter):
			value := wv.input.Value()
			wv.input.Reset()
			wv.adding = false
			wv.mu.Unlock()
			wv.run(func(ctx context.Context) error { return wv.AddWebhook(ctx, value) })
			return vxfw.ConsumeAndRedraw(), nil
		case key.Matches(vaxis.KeyEsc):
			wv.input.Reset()
			wv.adding = false
			wv.mu.Unlock()
			return vxfw.ConsumeAndRedraw(), nil
		}
		wv.input.Update(key)
		wv.mu.Unlock()
		return vxfw.ConsumeAndRedraw(), nil
	}
	wv.mu.Unlock()

	switch {
	case key.Matches('a'):
		wv.mu.Lock()
		wv.adding = true
		wv.mu.Unlock()
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('d'), key.Matches(vaxis.KeyDelete):
		if wv.DeleteSelected() {
			return vxfw.ConsumeAndRedraw(), nil
		}
		return nil, nil
	}
	return wv.list.HandleEvent(ev, phase)
}
