package views_test

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/deevus/bhs-tui/views"
)

// webhookStore backs a MockWebhookService with an in-memory set.
type webhookStore struct {
	mu      sync.Mutex
	hooks   map[string]bhs.Webhook
	deleted []string
	lists   int
}

func newWebhookStore(urls ...string) (*webhookStore, *bhs.MockWebhookService) {
	st := &webhookStore{hooks: make(map[string]bhs.Webhook)}
	for _, u := range urls {
		st.hooks[u] = bhs.Webhook{URL: u, Active: true}
	}
	mock := &bhs.MockWebhookService{
		ListFunc: func(ctx context.Context) ([]bhs.Webhook, error) {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.lists++
			out := make([]bhs.Webhook, 0, len(st.hooks))
			for _, h := range st.hooks {
				out = append(out, h)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
			return out, nil
		},
		AddFunc: func(ctx context.Context, url string) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.hooks[url] = bhs.Webhook{URL: url, Active: true, CreatedAt: time.Now()}
			return nil
		},
		DeleteFunc: func(ctx context.Context, url string) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.deleted = append(st.deleted, url)
			if _, ok := st.hooks[url]; !ok {
				return &bhs.HTTPError{Method: "DELETE", Path: "/webhook", StatusCode: http.StatusNotFound, Status: "404 Not Found"}
			}
			delete(st.hooks, url)
			return nil
		},
	}
	return st, mock
}

func hookURLs(hooks []bhs.Webhook) []string {
	out := make([]string, len(hooks))
	for i, h := range hooks {
		out[i] = h.URL
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestWebhookView_FetchWebhooks(t *testing.T) {
	_, mock := newWebhookStore("https://a.example/hook", "https://b.example/hook")
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	if err := wv.FetchWebhooks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hookURLs(wv.Webhooks()); len(got) != 2 || got[0] != "https://a.example/hook" {
		t.Errorf("unexpected webhooks: %v", got)
	}
	if wv.State() != views.StateLoaded {
		t.Errorf("expected loaded, got %s", wv.State())
	}
}

func TestWebhookView_AddThenListContainsURL(t *testing.T) {
	st, mock := newWebhookStore()
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	const hook = "https://example.com/hook"
	if err := wv.AddWebhook(context.Background(), hook); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !contains(hookURLs(wv.Webhooks()), hook) {
		t.Errorf("expected %s in refreshed list, got %v", hook, hookURLs(wv.Webhooks()))
	}
	if st.lists != 1 {
		t.Errorf("expected one refetch, got %d", st.lists)
	}
	if msg, isErr := wv.Status(); isErr || !strings.Contains(msg, hook) {
		t.Errorf("unexpected status %q (error=%v)", msg, isErr)
	}
}

func TestWebhookView_BulkAdd(t *testing.T) {
	st, mock := newWebhookStore()
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	input := "https://a.example/1 https://a.example/2\nhttps://a.example/3 https://a.example/1"
	if err := wv.AddWebhook(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := hookURLs(wv.Webhooks())
	if len(got) != 3 {
		t.Fatalf("expected 3 webhooks, got %v", got)
	}
	if st.lists != 1 {
		t.Errorf("expected a single refetch for the batch, got %d", st.lists)
	}
	if msg, _ := wv.Status(); msg != "Added 3 webhooks" {
		t.Errorf("unexpected status %q", msg)
	}
}

func TestWebhookView_BulkAdd_PartialFailure(t *testing.T) {
	_, mock := newWebhookStore()
	inner := mock.AddFunc
	mock.AddFunc = func(ctx context.Context, url string) error {
		if strings.Contains(url, "bad") {
			return &bhs.HTTPError{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"}
		}
		return inner(ctx, url)
	}
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	err := wv.AddWebhook(context.Background(), "https://good.example https://bad.example")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "https://bad.example") {
		t.Errorf("expected failing URL in error, got %v", err)
	}
	if got := hookURLs(wv.Webhooks()); len(got) != 1 || got[0] != "https://good.example" {
		t.Errorf("expected the good URL to be added, got %v", got)
	}
	if _, isErr := wv.Status(); !isErr {
		t.Error("expected the failure on the status line")
	}
}

func TestWebhookView_AddURLWithComma(t *testing.T) {
	var added []string
	_, mock := newWebhookStore()
	inner := mock.AddFunc
	mock.AddFunc = func(ctx context.Context, url string) error {
		added = append(added, url)
		return inner(ctx, url)
	}
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	const hook = "https://example.com/hook?ids=1,2"
	if err := wv.AddWebhook(context.Background(), hook); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(added) != 1 || added[0] != hook {
		t.Errorf("expected exactly one add of %q, got %q", hook, added)
	}
	if got := hookURLs(wv.Webhooks()); len(got) != 1 || got[0] != hook {
		t.Errorf("expected %q in refreshed list, got %v", hook, got)
	}
}

func TestWebhookView_AddEmpty(t *testing.T) {
	var added []string
	st, mock := newWebhookStore()
	mock.AddFunc = func(ctx context.Context, url string) error {
		added = append(added, url)
		return &bhs.HTTPError{Method: "POST", Path: "/webhook", StatusCode: http.StatusBadRequest, Status: "400 Bad Request"}
	}
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	err := wv.AddWebhook(context.Background(), "   ")
	var httpErr *bhs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected the server's rejection, got %v", err)
	}
	if len(added) != 1 || added[0] != "" {
		t.Errorf("expected one add of the empty URL, got %q", added)
	}
	if st.lists != 1 {
		t.Errorf("expected a refetch after the failed add, got %d", st.lists)
	}
	if _, isErr := wv.Status(); !isErr {
		t.Error("expected the failure on the status line")
	}
}

func TestWebhookView_DeleteThenListExcludesURL(t *testing.T) {
	const hook = "https://example.com/hook?id=1&x=y"
	st, mock := newWebhookStore(hook, "https://other.example")
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	if err := wv.DeleteWebhook(context.Background(), hook); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if contains(hookURLs(wv.Webhooks()), hook) {
		t.Errorf("expected %s removed, got %v", hook, hookURLs(wv.Webhooks()))
	}
	if len(st.deleted) != 1 || st.deleted[0] != hook {
		t.Errorf("expected delete of exact URL, got %v", st.deleted)
	}
}

func TestWebhookView_DeleteMissing_SurfacesError(t *testing.T) {
	_, mock := newWebhookStore("https://other.example")
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	err := wv.DeleteWebhook(context.Background(), "https://nope.example")
	if err == nil {
		t.Fatal("expected error")
	}
	msg, isErr := wv.Status()
	if !isErr || !strings.Contains(msg, "404") {
		t.Errorf("expected 404 on the status line, got %q", msg)
	}
	// The list is still refetched and shown.
	if wv.State() != views.StateLoaded || len(wv.Webhooks()) != 1 {
		t.Errorf("expected list to be refetched, got %s with %d", wv.State(), len(wv.Webhooks()))
	}
}

func TestWebhookView_ListError(t *testing.T) {
	mock := &bhs.MockWebhookService{
		ListFunc: func(ctx context.Context) ([]bhs.Webhook, error) {
			return nil, &bhs.HTTPError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}
		},
	}
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	if err := wv.FetchWebhooks(context.Background()); !bhs.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if wv.State() != views.StateError || wv.ErrorText() == "" {
		t.Errorf("expected error state with message, got %s %q", wv.State(), wv.ErrorText())
	}
}

func TestWebhookView_AddPrompt(t *testing.T) {
	_, mock := newWebhookStore()
	loaded := make(chan views.ViewLoaded, 4)
	wv := views.NewWebhookView(views.WebhookViewParams{
		Service:   mock,
		PostEvent: func(ev vaxis.Event) { loaded <- ev.(views.ViewLoaded) },
	})

	if _, err := wv.HandleEvent(vaxis.Key{Keycode: 'a', Text: "a"}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wv.CapturingInput() {
		t.Fatal("expected prompt open after 'a'")
	}

	const hook = "https://q.example/1"
	for _, r := range hook {
		wv.HandleEvent(vaxis.Key{Keycode: r, Text: string(r)}, 0)
	}
	wv.HandleEvent(vaxis.Key{Keycode: vaxis.KeyEnter}, 0)
	if wv.CapturingInput() {
		t.Error("expected prompt closed after enter")
	}

	select {
	case vl := <-loaded:
		if vl.Err != nil {
			t.Fatalf("unexpected error: %v", vl.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for add")
	}
	if !contains(hookURLs(wv.Webhooks()), hook) {
		t.Errorf("expected %s added, got %v", hook, hookURLs(wv.Webhooks()))
	}
}

func TestWebhookView_AddPrompt_Escape(t *testing.T) {
	st, mock := newWebhookStore()
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	wv.HandleEvent(vaxis.Key{Keycode: 'a', Text: "a"}, 0)
	wv.HandleEvent(vaxis.Key{Keycode: 'x', Text: "x"}, 0)
	wv.HandleEvent(vaxis.Key{Keycode: vaxis.KeyEsc}, 0)

	if wv.CapturingInput() {
		t.Error("expected prompt closed after esc")
	}
	time.Sleep(10 * time.Millisecond)
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.hooks) != 0 {
		t.Error("expected nothing added")
	}
}

func TestWebhookView_DeleteSelected(t *testing.T) {
	st, mock := newWebhookStore("https://a.example", "https://b.example")
	loaded := make(chan views.ViewLoaded, 4)
	wv := views.NewWebhookView(views.WebhookViewParams{
		Service:   mock,
		PostEvent: func(ev vaxis.Event) { loaded <- ev.(views.ViewLoaded) },
	})
	if err := wv.FetchWebhooks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wv.HandleEvent(vaxis.Key{Keycode: 'd', Text: "d"}, 0)

	select {
	case <-loaded:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delete")
	}
	st.mu.Lock()
	deleted := append([]string(nil), st.deleted...)
	st.mu.Unlock()
	if len(deleted) != 1 || deleted[0] != "https://a.example" {
		t.Errorf("expected the first row deleted, got %v", deleted)
	}
}

func TestWebhookView_UnmountDropsMutationOutcome(t *testing.T) {
	_, mock := newWebhookStore("https://a.example")
	started := make(chan struct{})
	release := make(chan struct{})
	mock.DeleteFunc = func(ctx context.Context, url string) error {
		close(started)
		<-release
		return &bhs.HTTPError{Method: "DELETE", Path: "/webhook", StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	}
	loaded := make(chan views.ViewLoaded, 4)
	wv := views.NewWebhookView(views.WebhookViewParams{
		Service:   mock,
		PostEvent: func(ev vaxis.Event) { loaded <- ev.(views.ViewLoaded) },
	})
	wv.Mount(context.Background())

	select {
	case vl := <-loaded:
		if vl.Source != wv || vl.Err != nil {
			t.Fatalf("unexpected initial load event: %+v", vl)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the list")
	}

	if !wv.DeleteSelected() {
		t.Fatal("expected a row to delete")
	}
	<-started
	wv.Unmount()
	close(release)

	select {
	case vl := <-loaded:
		t.Errorf("expected no event after unmount, got %+v", vl)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestParseWebhookURLs(t *testing.T) {
	got := views.ParseWebhookURLs(" https://a https://b\thttps://a\n")
	if len(got) != 2 || got[0] != "https://a" || got[1] != "https://b" {
		t.Errorf("unexpected parse: %v", got)
	}
	if got := views.ParseWebhookURLs("https://a/?x=1,2"); len(got) != 1 || got[0] != "https://a/?x=1,2" {
		t.Errorf("expected commas kept inside the URL, got %v", got)
	}
	if got := views.ParseWebhookURLs(""); len(got) != 1 || got[0] != "" {
		t.Errorf("expected a single empty URL, got %v", got)
	}
}

func TestWebhookView_Draw(t *testing.T) {
	_, mock := newWebhookStore("https://a.example")
	wv := views.NewWebhookView(views.WebhookViewParams{Service: mock})

	if _, err := wv.Draw(testDrawContext(120, 20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = wv.FetchWebhooks(context.Background())
	wv.HandleEvent(vaxis.Key{Keycode: 'a', Text: "a"}, 0)
	surf, err := wv.Draw(testDrawContext(120, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if surf.Size.Height != 20 {
		t.Errorf("expected height 20, got %d", surf.Size.Height)
	}
}
