package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/greg-hellings/startpage/pkg/confirm"
	"github.com/greg-hellings/startpage/pkg/gist"
	"github.com/greg-hellings/startpage/pkg/interchange"
	"github.com/greg-hellings/startpage/pkg/kv"
	"github.com/greg-hellings/startpage/pkg/store"
)

type fakeRemote struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	updated string
	block   chan struct{}
}

func (f *fakeRemote) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeRemote) Fetch(_ context.Context, _, _ string) (string, error) {
	f.hit()
	return f.content, f.err
}

func (f *fakeRemote) Update(_ context.Context, _, _, content string) error {
	f.hit()
	if f.err != nil {
		return f.err
	}
	f.updated = content
	return nil
}

func (f *fakeRemote) Exists(_ context.Context, _, _ string) error {
	f.hit()
	return f.err
}

// writeCounter counts writes of the cached document.
type writeCounter struct {
	*kv.Memory
	cacheWrites int
}

func (w *writeCounter) Set(key, value string) error {
	if key == kv.KeyCache {
		w.cacheWrites++
	}
	return w.Memory.Set(key, value)
}

type fixture struct {
	backend  *writeCounter
	store    *store.Store
	settings *store.Settings
	remote   *fakeRemote
	syncer   *Syncer
}

func newFixture(t *testing.T, answer bool, id, file, token string) *fixture {
	t.Helper()
	f := &fixture{backend: &writeCounter{Memory: kv.NewMemory()}, remote: &fakeRemote{}}
	f.store = store.New(f.backend)
	f.store.Process([]any{map[string]any{"category": "Local", "items": []any{map[string]any{"name": "a", "url": "http://a"}}}}, false)
	f.settings = store.NewSettings(f.backend, store.Defaults{})
	if id != "" {
		if err := f.settings.SaveGist(id, file, token); err != nil {
			t.Fatalf("SaveGist: %v", err)
		}
	}
	f.syncer = New(f.store, f.settings, confirm.Always(answer), Config{
		Timeout:   time.Second,
		NewRemote: func(string) (Remote, error) { return f.remote, nil },
	})
	return f
}

func TestPullReplacesDocument(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	f.remote.content = "categories:\n  - category: Remote\n    order: 2\n  - category: First\n    order: 1\n"

	if err := f.syncer.Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	doc := f.store.Data()
	if len(doc.Categories) != 2 || doc.Categories[0].Category != "First" {
		t.Errorf("categories = %+v", doc.Categories)
	}
	if f.backend.cacheWrites != 1 {
		t.Errorf("cache writes = %d", f.backend.cacheWrites)
	}
	if f.settings.LastPull().IsZero() {
		t.Error("last pull not recorded")
	}
	if st := f.syncer.Status(); !st.HasSynced || st.LocalModified {
		t.Errorf("status after pull = %+v", st)
	}
}

func TestPullInvalidContentLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	f.remote.content = "categories: [oops"
	before := f.store.Data()

	err := f.syncer.Pull(context.Background())
	if !errors.Is(err, interchange.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if f.store.Data() != before || before.Categories[0].Category != "Local" {
		t.Error("document must be unchanged")
	}
	if f.backend.cacheWrites != 0 {
		t.Error("no persistence write may occur")
	}
	if !f.settings.LastPull().IsZero() {
		t.Error("failed pull must not be recorded")
	}
	if UserMessage(err) != "Remote file is not valid YAML" {
		t.Errorf("message = %q", UserMessage(err))
	}
}

func TestPullEmptyRemote(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	f.remote.content = "  \n"
	if err := f.syncer.Pull(context.Background()); !errors.Is(err, interchange.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(f.store.Data().Categories) != 1 {
		t.Error("document must be unchanged")
	}
}

func TestPullOversizedRemote(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	f.remote.err = fmt.Errorf("raw fetch: %w: more than 10 bytes", gist.ErrTooLarge)
	before := f.store.Data()

	err := f.syncer.Pull(context.Background())
	if !errors.Is(err, gist.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if f.store.Data() != before || f.backend.cacheWrites != 0 {
		t.Error("document must be unchanged")
	}
	if UserMessage(err) != "Gist file is too large to import" {
		t.Errorf("message = %q", UserMessage(err))
	}
}

func TestPullCancelled(t *testing.T) {
	f := newFixture(t, false, "abc", "nav.yaml", "")
	err := f.syncer.Pull(context.Background())
	if !errors.Is(err, confirm.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if f.remote.calls != 0 {
		t.Error("declined pull must not touch the network")
	}
}

func TestNotConfigured(t *testing.T) {
	f := newFixture(t, true, "", "", "")
	for name, op := range map[string]func(context.Context) error{
		"pull": f.syncer.Pull,
		"push": f.syncer.Push,
		"test": f.syncer.Test,
	} {
		if err := op(context.Background()); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: expected ErrNotConfigured, got %v", name, err)
		}
	}
	if f.remote.calls != 0 {
		t.Error("no network calls expected")
	}
}

func TestPushWithoutToken(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	err := f.syncer.Push(context.Background())
	if !errors.Is(err, gist.ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
	if f.remote.calls != 0 {
		t.Error("push without a token must not make a network call")
	}
	if UserMessage(err) != "Set token first (gist scope)" {
		t.Errorf("message = %q", UserMessage(err))
	}
}

func TestPushSendsInterchangeText(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "ghp_token")
	if err := f.syncer.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !strings.Contains(f.remote.updated, "category: Local") || strings.Contains(f.remote.updated, "id:") {
		t.Errorf("pushed text = %q", f.remote.updated)
	}
	st := f.syncer.Status()
	if st.LastPush.IsZero() || st.LocalModified || st.Token != "********oken" {
		t.Errorf("status = %+v", st)
	}

	// A local edit after the push marks the document as modified.
	f.store.Process([]any{map[string]any{"category": "Changed"}}, false)
	if !f.syncer.Status().LocalModified {
		t.Error("expected local modification to be detected")
	}
}

func TestPushFailureClassified(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "bad")
	f.remote.err = &gist.APIError{Op: "update gist", StatusCode: 401, Kind: gist.ErrUnauthorized}
	err := f.syncer.Push(context.Background())
	if !errors.Is(err, gist.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !f.settings.LastPush().IsZero() {
		t.Error("failed push must not be recorded")
	}
}

func TestBusy(t *testing.T) {
	f := newFixture(t, true, "abc", "nav.yaml", "")
	f.remote.block = make(chan struct{})
	f.remote.content = "[]"

	done := make(chan error, 1)
	go func() { done <- f.syncer.Test(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !f.syncer.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := f.syncer.Pull(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	close(f.remote.block)
	if err := <-done; err != nil {
		t.Errorf("Test: %v", err)
	}
	if f.syncer.Busy() {
		t.Error("busy flag not released")
	}
}

func TestUserMessagesAreDistinct(t *testing.T) {
	errs := []error{
		ErrBusy,
		ErrNotConfigured,
		confirm.ErrCancelled,
		gist.ErrTokenRequired,
		gist.ErrUnauthorized,
		gist.ErrGistNotFound,
		gist.ErrFileNotFound,
		gist.ErrRateLimited,
		gist.ErrTransport,
		gist.ErrTooLarge,
		interchange.ErrMalformed,
		interchange.ErrEmptyInput,
		context.DeadlineExceeded,
		&gist.APIError{StatusCode: 500},
	}
	seen := map[string]error{}
	for _, err := range errs {
		msg := UserMessage(err)
		if msg == "" {
			t.Errorf("empty message for %v", err)
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("%v and %v share message %q", prev, err, msg)
		}
		seen[msg] = err
	}
	if UserMessage(nil) != "" {
		t.Error("nil error should have no message")
	}
}
