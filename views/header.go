package views

import (
	"context"
	"fmt"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/list"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/deevus/bhs-tui/widgets"
	"github.com/dustin/go-humanize"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// HeaderViewParams holds configuration for creating a HeaderView.
type HeaderViewParams struct {
	Service   bhs.ChainServiceAPI
	PostEvent func(vaxis.Event)
}

// HeaderView displays the chain tip, a paged list of the most recent
// headers and the full detail of one selected header.
//
// The tip, the page list and the detail each have their own lifecycle, so a
// failed detail fetch leaves the list on screen and vice versa.
type HeaderView struct {
	service   bhs.ChainServiceAPI
	postEvent func(vaxis.Event)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	mounted bool

	tipLC    lifecycle
	listLC   lifecycle
	detailLC lifecycle

	tip      *bhs.ChainTip
	page     int
	headers  []bhs.HeaderSummary // newest first
	listTip  int                 // tip height the current headers were fetched against
	listPage int
	detail   *bhs.HeaderDetail

	list list.Dynamic
}

// NewHeaderView creates a HeaderView backed by the given params.
func NewHeaderView(p HeaderViewParams) *HeaderView {
	hv := &HeaderView{
		service:   p.Service,
		postEvent: p.PostEvent,
		page:      1,
	}
	hv.list.DrawCursor = true
	hv.list.Builder = hv.buildRow
	return hv
}

// Mount starts loading the tip and the first page in the background.
// Only the first call on an instance has any effect; it reports whether
// a load was started.
func (hv *HeaderView) Mount(ctx context.Context) bool {
	hv.mu.Lock()
	if hv.mounted {
		hv.mu.Unlock()
		return false
	}
	hv.mounted = true
	hv.ctx, hv.cancel = context.WithCancel(ctx)
	hv.mu.Unlock()

	hv.run(hv.Load)
	return true
}

// Unmount cancels every in-flight request. Responses arriving later are dropped.
func (hv *HeaderView) Unmount() {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	if hv.cancel != nil {
		hv.cancel()
	}
	hv.tipLC.stop()
	hv.listLC.stop()
	hv.detailLC.stop()
}

// Load fetches the chain tip and then the current page of headers.
func (hv *HeaderView) Load(ctx context.Context) error {
	if err := hv.FetchTip(ctx); err != nil {
		return err
	}
	hv.mu.Lock()
	tip, page := hv.tip.Height, hv.page
	hv.mu.Unlock()
	return hv.FetchHeaders(ctx, tip, page)
}

// FetchTip fetches the longest chain tip.
func (hv *HeaderView) FetchTip(ctx context.Context) error {
	hv.mu.Lock()
	reqCtx, id := hv.tipLC.begin(ctx)
	hv.mu.Unlock()

	tip, err := hv.service.Tip(reqCtx)
	if err != nil {
		err = fmt.Errorf("fetching chain tip: %w", err)
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()
	if !hv.tipLC.finish(id, err) {
		return ErrSuperseded
	}
	if err != nil {
		hv.tip = nil
		return err
	}
	hv.tip = tip
	return nil
}

// FetchHeaders fetches the given page of headers ending below tip.
// The page becomes the current page immediately; its rows replace the
// previous page's once the response arrives.
func (hv *HeaderView) FetchHeaders(ctx context.Context, tip, page int) error {
	start, count := PageRange(tip, page)

	hv.mu.Lock()
	reqCtx, id := hv.listLC.begin(ctx)
	hv.page = page
	hv.mu.Unlock()

	var headers []bhs.HeaderSummary
	var err error
	if count > 0 {
		headers, err = hv.service.HeadersByHeight(reqCtx, start, count)
		if err != nil {
			err = fmt.Errorf("fetching %d headers from height %d: %w", count, start, err)
		}
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()
	if !hv.listLC.finish(id, err) {
		return ErrSuperseded
	}
	if err != nil {
		hv.headers = nil
		return err
	}

	hv.headers = newestFirst(headers)
	hv.listTip = tip
	hv.listPage = page
	return nil
}

// newestFirst returns headers in display order. Rows are kept in response
// order unless their timestamps strictly increase, which only an ascending
// answer can produce.
func newestFirst(headers []bhs.HeaderSummary) []bhs.HeaderSummary {
	if !ascending(headers) {
		return headers
	}
	rows := make([]bhs.HeaderSummary, len(headers))
	for i, h := range headers {
		rows[len(headers)-1-i] = h
	}
	return rows
}

func ascending(headers []bhs.HeaderSummary) bool {
	if len(headers) < 2 {
		return false
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].CreationTimestamp <= headers[i-1].CreationTimestamp {
			return false
		}
	}
	return true
}

// FetchHeaderDetail fetches every field of the header with the given hash,
// replacing any previously shown detail.
func (hv *HeaderView) FetchHeaderDetail(ctx context.Context, hash chainhash.Hash) error {
	hv.mu.Lock()
	reqCtx, id := hv.detailLC.begin(ctx)
	hv.mu.Unlock()

	detail, err := hv.service.Header(reqCtx, hash)
	if err != nil {
		err = fmt.Errorf("fetching header %s: %w", hash, err)
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()
	if !hv.detailLC.finish(id, err) {
		return ErrSuperseded
	}
	if err != nil {
		hv.detail = nil
		return err
	}
	hv.detail = detail
	return nil
}

// NextPage moves one page towards genesis and fetches it in the background.
// It returns false when there is no next page.
func (hv *HeaderView) NextPage() bool {
	hv.mu.Lock()
	if hv.tip == nil || !HasNextPage(hv.tip.Height, hv.page) {
		hv.mu.Unlock()
		return false
	}
	hv.page++
	tip, page := hv.tip.Height, hv.page
	hv.mu.Unlock()

	hv.run(func(ctx context.Context) error { return hv.FetchHeaders(ctx, tip, page) })
	return true
}

// PrevPage moves one page towards the tip and fetches it in the background.
// It returns false on the first page.
func (hv *HeaderView) PrevPage() bool {
	hv.mu.Lock()
	if hv.tip == nil || !HasPrevPage(hv.page) {
		hv.mu.Unlock()
		return false
	}
	hv.page--
	tip, page := hv.tip.Height, hv.page
	hv.mu.Unlock()

	hv.run(func(ctx context.Context) error { return hv.FetchHeaders(ctx, tip, page) })
	return true
}

// SelectRow fetches the detail of row i of the current page in the background.
func (hv *HeaderView) SelectRow(i int) bool {
	hv.mu.Lock()
	if i < 0 || i >= len(hv.headers) {
		hv.mu.Unlock()
		return false
	}
	hash := hv.headers[i].Hash
	hv.mu.Unlock()

	hv.run(func(ctx context.Context) error { return hv.FetchHeaderDetail(ctx, hash) })
	return true
}

func (hv *HeaderView) run(fn func(context.Context) error) {
	hv.mu.Lock()
	ctx := hv.ctx
	hv.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		report(hv.postEvent, hv, HeaderViewName, finishedWithin(ctx, fn(ctx)))
	}()
}

// Mounted reports whether Mount has been called.
func (hv *HeaderView) Mounted() bool {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.mounted
}

// Tip returns the loaded chain tip, or nil.
func (hv *HeaderView) Tip() *bhs.ChainTip {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.tip
}

// Page returns the current 1-based page.
func (hv *HeaderView) Page() int {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.page
}

// Headers returns the rows of the current page, newest first.
func (hv *HeaderView) Headers() []bhs.HeaderSummary {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.headers
}

// Detail returns the selected header's detail, or nil.
func (hv *HeaderView) Detail() *bhs.HeaderDetail {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.detail
}

// HeightAt returns the height displayed for row i of the current page.
func (hv *HeaderView) HeightAt(i int) int {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return RowHeight(hv.listTip, hv.listPage, i)
}

// CanPrev reports whether the previous-page control is enabled.
func (hv *HeaderView) CanPrev() bool {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return HasPrevPage(hv.page)
}

// CanNext reports whether the next-page control is enabled.
func (hv *HeaderView) CanNext() bool {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.tip != nil && HasNextPage(hv.tip.Height, hv.page)
}

func (hv *HeaderView) TipState() LoadState {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.tipLC.state
}

func (hv *HeaderView) ListState() LoadState {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.listLC.state
}

func (hv *HeaderView) DetailState() LoadState {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.detailLC.state
}

// ErrorText returns the message of the first failed section, tip first.
func (hv *HeaderView) ErrorText() string {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	for _, lc := range []*lifecycle{&hv.tipLC, &hv.listLC, &hv.detailLC} {
		if lc.state == StateError {
			return lc.errText()
		}
	}
	return ""
}

// blockIntervals returns the seconds between consecutive headers, oldest first.
func blockIntervals(newestFirst []bhs.HeaderSummary) []float64 {
	if len(newestFirst) < 2 {
		return nil
	}
	out := make([]float64, 0, len(newestFirst)-1)
	for i := len(newestFirst) - 1; i > 0; i-- {
		d := newestFirst[i-1].CreationTimestamp - newestFirst[i].CreationTimestamp
		if d < 0 {
			d = -d
		}
		out = append(out, float64(d))
	}
	return out
}

// HeaderDetailRows returns the label/value pairs shown for a header.
func HeaderDetailRows(d *bhs.HeaderDetail) [][]string {
	created := d.Created()
	return [][]string{
		{"Hash", d.Hash.String()},
		{"Version", fmt.Sprintf("%d (0x%08x)", d.Version, uint32(d.Version))},
		{"Previous block", d.PrevBlockHash.String()},
		{"Merkle root", d.MerkleRoot.String()},
		{"Timestamp", fmt.Sprintf("%s (%s)", created.UTC().Format(timeLayout), humanize.Time(created))},
		{"Difficulty target", fmt.Sprintf("%d (0x%08x)", d.DifficultyTarget, d.DifficultyTarget)},
		{"Nonce", fmt.Sprintf("%d", d.Nonce)},
		{"Chainwork", d.Work},
	}
}

func (hv *HeaderView) buildRow(i uint, cursor uint) vxfw.Widget {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	if int(i) >= len(hv.headers) {
		return nil
	}
	h := hv.headers[i]
	height := RowHeight(hv.listTip, hv.listPage, int(i))
	created := h.Created()

	return richtext.New([]vaxis.Segment{
		{Text: fmt.Sprintf("%-10s  ", humanize.Comma(int64(height))), Style: vaxis.Style{Attribute: vaxis.AttrBold}},
		{Text: fmt.Sprintf("%-64s  ", h.Hash.String())},
		{Text: humanize.Time(created), Style: vaxis.Style{Attribute: vaxis.AttrDim}},
	})
}

// headerSnapshot is the state Draw needs, copied under the lock.
type headerSnapshot struct {
	tipState, listState, detailState LoadState
	tipErr, listErr, detailErr       string
	tip                              *bhs.ChainTip
	page                             int
	rows                             int
	detail                           *bhs.HeaderDetail
	intervals                        []float64
	avgInterval                      time.Duration
}

func (hv *HeaderView) snapshot() headerSnapshot {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	snap := headerSnapshot{
		tipState:    hv.tipLC.state,
		listState:   hv.listLC.state,
		detailState: hv.detailLC.state,
		tipErr:      hv.tipLC.errText(),
		listErr:     hv.listLC.errText(),
		detailErr:   hv.detailLC.errText(),
		tip:         hv.tip,
		page:        hv.page,
		rows:        len(hv.headers),
		detail:      hv.detail,
		intervals:   blockIntervals(hv.headers),
	}
	if len(snap.intervals) > 0 {
		var sum float64
		for _, v := range snap.intervals {
			sum += v
		}
		snap.avgInterval = time.Duration(sum/float64(len(snap.intervals))) * time.Second
	}
	return snap
}

// Draw renders the tip, the page list with its pager and the detail pane.
func (hv *HeaderView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	snap := hv.snapshot()
	switch snap.tipState {
	case StateIdle, StateLoading:
		return drawLoadingState(ctx, hv)
	case StateError:
		return drawErrorState(ctx, hv, snap.tipErr)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, hv)
	bold := vaxis.Style{Attribute: vaxis.AttrBold}
	dim := vaxis.Style{Attribute: vaxis.AttrDim}

	// Tip summary
	tip := snap.tip
	if err := drawLine(ctx, &s, 0, []vaxis.Segment{
		{Text: "Chain tip  ", Style: bold},
		{Text: "#" + humanize.Comma(int64(tip.Height)) + "  "},
		{Text: tip.Header.Hash.String() + "  "},
		{Text: humanize.Time(time.Unix(tip.Header.CreationTimestamp, 0)), Style: dim},
	}); err != nil {
		return vxfw.Surface{}, err
	}

	// Block interval sparkline
	const sparkLabel = "Intervals  "
	if err := drawLine(ctx, &s, 1, []vaxis.Segment{{Text: sparkLabel, Style: bold}}); err != nil {
		return vxfw.Surface{}, err
	}
	if len(snap.intervals) > 0 && int(ctx.Max.Width) > len(sparkLabel) {
		spark := widgets.NewSparkline()
		spark.Set(snap.intervals)
		sparkW := min(len(snap.intervals), int(ctx.Max.Width)-len(sparkLabel))
		sparkSurf, err := spark.Draw(ctx.WithMax(vxfw.Size{Width: uint16(sparkW), Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(len(sparkLabel), 1, sparkSurf)
		if avgCol := len(sparkLabel) + sparkW + 2; avgCol < int(ctx.Max.Width) {
			widgets.WriteText(&s, uint16(avgCol), 1, int(ctx.Max.Width)-avgCol,
				"avg "+snap.avgInterval.String(), dim, false)
		}
	}

	// Column header
	if err := drawLine(ctx, &s, 3, []vaxis.Segment{
		{Text: fmt.Sprintf("%-10s  %-64s  %s", "HEIGHT", "HASH", "CREATED"), Style: bold},
	}); err != nil {
		return vxfw.Surface{}, err
	}

	// Page rows
	const listRow = 4
	switch snap.listState {
	case StateIdle, StateLoading:
		if err := drawLine(ctx, &s, listRow, []vaxis.Segment{{Text: "Loading...", Style: dim}}); err != nil {
			return vxfw.Surface{}, err
		}
	case StateError:
		if err := drawLine(ctx, &s, listRow, errorSegments(snap.listErr)); err != nil {
			return vxfw.Surface{}, err
		}
	default:
		if snap.rows == 0 {
			if err := drawLine(ctx, &s, listRow, []vaxis.Segment{{Text: "No headers", Style: dim}}); err != nil {
				return vxfw.Surface{}, err
			}
		} else if ctx.Max.Height > listRow {
			listH := min(uint16(PageSize), ctx.Max.Height-listRow)
			listSurf, err := hv.list.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: listH}))
			if err != nil {
				return vxfw.Surface{}, err
			}
			s.AddChild(0, listRow, listSurf)
		}
	}

	// Pager
	pagerRow := listRow + PageSize + 1
	prevStyle, nextStyle := vaxis.Style{}, vaxis.Style{}
	if !HasPrevPage(snap.page) {
		prevStyle = dim
	}
	if !HasNextPage(tip.Height, snap.page) {
		nextStyle = dim
	}
	if err := drawLine(ctx, &s, pagerRow, []vaxis.Segment{
		{Text: "[p] Prev", Style: prevStyle},
		{Text: fmt.Sprintf("   Page %d   ", snap.page), Style: bold},
		{Text: "[n] Next", Style: nextStyle},
		{Text: "   [enter] details", Style: dim},
	}); err != nil {
		return vxfw.Surface{}, err
	}

	// Detail pane
	detailRow := pagerRow + 2
	if err := drawLine(ctx, &s, detailRow, []vaxis.Segment{{Text: "Header detail", Style: bold}}); err != nil {
		return vxfw.Surface{}, err
	}
	detailRow++
	switch snap.detailState {
	case StateIdle:
		return s, drawLine(ctx, &s, detailRow, []vaxis.Segment{{Text: "Select a header and press enter", Style: dim}})
	case StateLoading:
		return s, drawLine(ctx, &s, detailRow, []vaxis.Segment{{Text: "Loading...", Style: dim}})
	case StateError:
		return s, drawLine(ctx, &s, detailRow, errorSegments(snap.detailErr))
	}

	if int(ctx.Max.Height) <= detailRow {
		return s, nil
	}
	table := &widgets.Table{
		Columns: []widgets.TableColumn{
			{Width: 18, Style: dim},
			{Width: 64},
		},
		Rows: HeaderDetailRows(snap.detail),
		Gap:  2,
	}
	tableSurf, err := table.Draw(ctx.WithMax(vxfw.Size{
		Width:  ctx.Max.Width,
		Height: ctx.Max.Height - uint16(detailRow),
	}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, detailRow, tableSurf)
	return s, nil
}

// HandleEvent handles paging and selection keys and delegates the rest to
// the list widget for cursor navigation.
func (hv *HeaderView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	if key, ok := ev.(vaxis.Key); ok {
		switch {
		case key.Matches(vaxis.KeyEnter):
			if hv.SelectRow(int(hv.list.Cursor())) {
				return vxfw.ConsumeAndRedraw(), nil
			}
			return nil, nil
		case key.Matches('n'), key.Matches(vaxis.KeyRight):
			if hv.NextPage() {
				return vxfw.ConsumeAndRedraw(), nil
			}
			return nil, nil
		case key.Matches('p'), key.Matches(vaxis.KeyLeft):
			if hv.PrevPage() {
				return vxfw.ConsumeAndRedraw(), nil
			}
			return nil, nil
		}
	}
	return hv.list.HandleEvent(ev, phase)
}
