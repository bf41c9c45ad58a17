package editing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yewfence/blogctl/internal/auth"
	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/gate"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/repository"
)

const testPassword = "123456"

type fakeSource struct {
	posts []domain.Post
	err   error
}

func (f *fakeSource) LoadIndex(ctx context.Context) ([]domain.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Post, len(f.posts))
	copy(out, f.posts)
	return out, nil
}

type fakeBodies struct {
	bodies   map[string]string
	replaced map[string]string
	fetchErr error
}

func (f *fakeBodies) FetchBody(ctx context.Context, post domain.Post) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.bodies[post.ID], nil
}

func (f *fakeBodies) ReplaceBody(ctx context.Context, post domain.Post, text string) error {
	if f.replaced == nil {
		f.replaced = make(map[string]string)
	}
	f.replaced[post.ID] = text
	return nil
}

type fakePersister struct {
	created []string
	edited  []string
	deleted []string
}

func (f *fakePersister) CreatePost(ctx context.Context, post domain.Post) error {
	f.created = append(f.created, post.ID)
	return nil
}

func (f *fakePersister) EditPost(ctx context.Context, post domain.Post) error {
	f.edited = append(f.edited, post.ID)
	return nil
}

func (f *fakePersister) DeletePost(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeExporter struct {
	index    []byte
	markdown map[string][]byte
	zipped   int
}

func (f *fakeExporter) WriteIndex(content []byte) (string, error) {
	f.index = content
	return "blogs.json", nil
}

func (f *fakeExporter) WriteMarkdown(name string, content []byte) (string, error) {
	if f.markdown == nil {
		f.markdown = make(map[string][]byte)
	}
	f.markdown[name] = content
	return name + ".md", nil
}

func (f *fakeExporter) WriteZip(files map[string][]byte) (string, error) {
	f.zipped = len(files)
	return "posts.zip", nil
}

type fakeCache struct {
	entries     map[string]string
	invalidated []string
	flushed     bool
}

func (f *fakeCache) CacheRendered(ctx context.Context, postID, html string) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[postID] = html
	return nil
}

func (f *fakeCache) GetRendered(ctx context.Context, postID string) (string, error) {
	return f.entries[postID], nil
}

func (f *fakeCache) Invalidate(ctx context.Context, postID string) error {
	f.invalidated = append(f.invalidated, postID)
	delete(f.entries, postID)
	return nil
}

func (f *fakeCache) Flush(ctx context.Context) error {
	f.flushed = true
	f.entries = nil
	return nil
}

// decide resolves every gate request with the given answer for the
// lifetime of the test.
func decide(t *testing.T, g *gate.Gate, approve bool) {
	t.Helper()
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case req := <-g.Requests():
				req.Resolve(approve)
			case <-done:
				return
			}
		}
	}()
}

type fixture struct {
	session  *Session
	gate     *gate.Gate
	source   *fakeSource
	bodies   *fakeBodies
	exporter *fakeExporter
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	creds := auth.NewCredentials(&auth.MemoryStorage{})
	if err := creds.EnsureInitialized(testPassword); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}

	source := &fakeSource{posts: []domain.Post{
		{ID: "a1", Title: "Hello", Author: "YewFence", Date: "2026-01-02", Status: domain.StatusPublished, MDFile: "hello.md"},
		{ID: "b2", Title: "Older", Author: "YewFence", Date: "2025-12-24", Status: domain.StatusHidden, MDFile: "older.md"},
	}}
	bodies := &fakeBodies{bodies: map[string]string{
		"a1": "# Hello\n\nbody one",
		"b2": "# Older\n\nbody two",
	}}
	exporter := &fakeExporter{}
	g := gate.New()

	opts.Auth = auth.NewSession(creds)
	opts.Repo = repository.New(source, nil)
	opts.Gate = g
	opts.Logger = logger.Nop()
	if opts.Bodies == nil {
		opts.Bodies = bodies
	}
	if opts.Exporter == nil {
		opts.Exporter = exporter
	}

	return &fixture{
		session:  New(opts),
		gate:     g,
		source:   source,
		bodies:   bodies,
		exporter: exporter,
	}
}

func open(t *testing.T, f *fixture) {
	t.Helper()
	if err := f.session.Login(testPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := f.session.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
}

func TestOpenRequiresLogin(t *testing.T) {
	f := newFixture(t, Options{})

	if err := f.session.Open(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Open() before login error = %v, want ErrNotAuthenticated", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newFixture(t, Options{})

	err := f.session.Login("wrong")
	var aerr *domain.AuthError
	if !errors.As(err, &aerr) {
		t.Errorf("Login() error = %v, want *AuthError", err)
	}
}

func TestOpenFatalOnLoadError(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.err = &domain.LoadError{Resource: "index", Err: errors.New("unreachable")}

	if err := f.session.Login(testPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	err := f.session.Open(context.Background())

	var lerr *domain.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("Open() error = %v, want *LoadError", err)
	}
	if f.session.State() == StateReady {
		t.Error("Open() reached Ready despite a fatal load error")
	}
	if _, err := f.session.Posts(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Posts() after failed Open error = %v, want ErrNotReady", err)
	}
}

func TestOpenRetryAfterFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.err = errors.New("unreachable")

	if err := f.session.Login(testPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := f.session.Open(context.Background()); err == nil {
		t.Fatal("Open() error = nil, want failure")
	}

	f.source.err = nil
	if err := f.session.Open(context.Background()); err != nil {
		t.Fatalf("retried Open() error = %v", err)
	}
	if f.session.State() != StateReady {
		t.Errorf("State() = %v, want ready", f.session.State())
	}
}

func TestAddPostIsUngated(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	// No decider is running: a gate request would deadlock the test.

	post, err := f.session.AddPost()
	if err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}
	if post.Status != domain.StatusDraft {
		t.Errorf("AddPost() status = %v, want draft", post.Status)
	}

	posts, err := f.session.Posts()
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if posts[0].ID != post.ID {
		t.Error("AddPost() should prepend the draft")
	}
}

func TestSavePostApproved(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	applied, err := f.session.SavePost(context.Background(), "a1", domain.Patch{
		Title: domain.String("Hello again"),
	})
	if err != nil {
		t.Fatalf("SavePost() error = %v", err)
	}
	if !applied {
		t.Fatal("SavePost() applied = false after approval")
	}

	post, err := f.session.Find("a1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if post.Title != "Hello again" {
		t.Errorf("saved title = %q", post.Title)
	}
}

func TestSavePostDeclined(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, false)

	applied, err := f.session.SavePost(context.Background(), "a1", domain.Patch{
		Title: domain.String("Hello again"),
	})
	if err != nil {
		t.Fatalf("SavePost() error = %v, a refusal is not an error", err)
	}
	if applied {
		t.Fatal("SavePost() applied = true after refusal")
	}

	post, _ := f.session.Find("a1")
	if post.Title != "Hello" {
		t.Errorf("declined save changed the post: title = %q", post.Title)
	}
}

func TestSavePostValidatesBeforeConfirming(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	// No decider: validation must fail before any request is emitted.

	_, err := f.session.SavePost(context.Background(), "a1", domain.Patch{
		Title: domain.String(""),
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("SavePost() error = %v, want *ValidationError", err)
	}
}

func TestRemovePost(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	applied, err := f.session.RemovePost(context.Background(), "a1")
	if err != nil || !applied {
		t.Fatalf("RemovePost() = (%v, %v)", applied, err)
	}
	if _, err := f.session.Find("a1"); !errors.Is(err, ErrPostNotFound) {
		t.Error("removed post still findable")
	}
}

func TestRemovePostDeclinedKeepsPost(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, false)

	applied, err := f.session.RemovePost(context.Background(), "a1")
	if err != nil {
		t.Fatalf("RemovePost() error = %v", err)
	}
	if applied {
		t.Fatal("RemovePost() applied = true after refusal")
	}
	if _, err := f.session.Find("a1"); err != nil {
		t.Error("declined removal lost the post")
	}
}

func TestReplaceBody(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	applied, err := f.session.ReplaceBody(context.Background(), "a1", "# Hello\n\nrewritten")
	if err != nil || !applied {
		t.Fatalf("ReplaceBody() = (%v, %v)", applied, err)
	}
	if f.bodies.replaced["a1"] != "# Hello\n\nrewritten" {
		t.Errorf("body store received %q", f.bodies.replaced["a1"])
	}

	post, _ := f.session.Find("a1")
	if post.Content != "# Hello\n\nrewritten" {
		t.Error("ReplaceBody() did not update in-memory content")
	}
}

func TestExportApproved(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	before, _ := f.session.Posts()
	path, err := f.session.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if path == "" {
		t.Fatal("Export() path empty after approval")
	}
	if len(f.exporter.index) == 0 {
		t.Fatal("Export() wrote nothing")
	}

	after, _ := f.session.Posts()
	if len(before) != len(after) {
		t.Error("Export() mutated the collection")
	}
}

func TestExportDeclined(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, false)

	path, err := f.session.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if path != "" {
		t.Errorf("Export() path = %q after refusal", path)
	}
	if f.exporter.index != nil {
		t.Error("declined export still wrote the artifact")
	}
}

func TestExportZip(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	path, err := f.session.ExportZip(context.Background())
	if err != nil {
		t.Fatalf("ExportZip() error = %v", err)
	}
	if path != "posts.zip" {
		t.Errorf("ExportZip() path = %q", path)
	}
	if f.exporter.zipped != 2 {
		t.Errorf("ExportZip() bundled %d bodies, want 2", f.exporter.zipped)
	}
}

func TestReloadDiscardsLocalEdits(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	if _, err := f.session.AddPost(); err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}

	applied, err := f.session.Reload(context.Background())
	if err != nil || !applied {
		t.Fatalf("Reload() = (%v, %v)", applied, err)
	}

	posts, _ := f.session.Posts()
	if len(posts) != 2 {
		t.Errorf("Reload() kept %d posts, want the 2 from the source", len(posts))
	}
}

func TestDownloadBody(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)

	path, err := f.session.DownloadBody(context.Background(), "a1")
	if err != nil {
		t.Fatalf("DownloadBody() error = %v", err)
	}
	if path == "" {
		t.Fatal("DownloadBody() path empty")
	}
	if string(f.exporter.markdown["Hello"]) != "# Hello\n\nbody one" {
		t.Errorf("downloaded content = %q", f.exporter.markdown["Hello"])
	}
}

func TestPreviewBodyEscapes(t *testing.T) {
	f := newFixture(t, Options{})
	f.bodies.bodies["a1"] = "<script>alert(1)</script>"
	open(t, f)

	got, err := f.session.PreviewBody(context.Background(), "a1")
	if err != nil {
		t.Fatalf("PreviewBody() error = %v", err)
	}
	if got != "&lt;script&gt;alert(1)&lt;/script&gt;" {
		t.Errorf("PreviewBody() = %q", got)
	}
}

func TestRenderBodyStripsDuplicateTitle(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)

	html, err := f.session.RenderBody(context.Background(), "a1")
	if err != nil {
		t.Fatalf("RenderBody() error = %v", err)
	}
	if strings.Contains(html, "<h1") {
		t.Errorf("RenderBody() kept the duplicate leading title: %q", html)
	}
	if !strings.Contains(html, "body one") {
		t.Errorf("RenderBody() lost the body: %q", html)
	}
}

func TestRenderBodyUsesCache(t *testing.T) {
	cache := &fakeCache{entries: map[string]string{"a1": "<p>cached</p>"}}
	f := newFixture(t, Options{Cache: cache})
	f.bodies.fetchErr = errors.New("must not be called on cache hit")
	open(t, f)

	html, err := f.session.RenderBody(context.Background(), "a1")
	if err != nil {
		t.Fatalf("RenderBody() error = %v", err)
	}
	if html != "<p>cached</p>" {
		t.Errorf("RenderBody() = %q, want the cached entry", html)
	}
}

func TestReplaceBodyInvalidatesCache(t *testing.T) {
	cache := &fakeCache{entries: map[string]string{"a1": "<p>stale</p>"}}
	f := newFixture(t, Options{Cache: cache})
	open(t, f)
	decide(t, f.gate, true)

	if _, err := f.session.ReplaceBody(context.Background(), "a1", "new body"); err != nil {
		t.Fatalf("ReplaceBody() error = %v", err)
	}
	if len(cache.invalidated) == 0 || cache.invalidated[0] != "a1" {
		t.Errorf("ReplaceBody() invalidated %v, want [a1]", cache.invalidated)
	}
}

func TestChangePasswordEndsSession(t *testing.T) {
	f := newFixture(t, Options{})
	open(t, f)
	decide(t, f.gate, true)

	applied, err := f.session.ChangePassword(context.Background(), testPassword, "hunter22")
	if err != nil || !applied {
		t.Fatalf("ChangePassword() = (%v, %v)", applied, err)
	}
	if f.session.State() != StateUnauthenticated {
		t.Errorf("State() after password change = %v, want unauthenticated", f.session.State())
	}
	if _, err := f.session.Posts(); err == nil {
		t.Error("Posts() succeeded after forced logout")
	}

	if err := f.session.Login("hunter22"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

func TestBackendProfilePushesMetadata(t *testing.T) {
	persister := &fakePersister{}
	f := newFixture(t, Options{Persister: persister})
	open(t, f)
	decide(t, f.gate, true)

	// Fresh draft: first save must create, second must edit.
	post, err := f.session.AddPost()
	if err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}
	patch := domain.Patch{
		Title:  domain.String("Brand new"),
		Author: domain.String("YewFence"),
		Date:   domain.String("2026-02-03"),
		Status: domain.StatusPtr(domain.StatusPublished),
	}
	if _, err := f.session.SavePost(context.Background(), post.ID, patch); err != nil {
		t.Fatalf("first SavePost() error = %v", err)
	}
	if len(persister.created) != 1 || persister.created[0] != post.ID {
		t.Errorf("first save created %v, want [%s]", persister.created, post.ID)
	}

	if _, err := f.session.SavePost(context.Background(), post.ID, patch); err != nil {
		t.Fatalf("second SavePost() error = %v", err)
	}
	if len(persister.edited) != 1 || persister.edited[0] != post.ID {
		t.Errorf("second save edited %v, want [%s]", persister.edited, post.ID)
	}
}

func TestBackendProfileSkipsDeleteForNeverPushedDraft(t *testing.T) {
	persister := &fakePersister{}
	f := newFixture(t, Options{Persister: persister})
	open(t, f)
	decide(t, f.gate, true)

	post, err := f.session.AddPost()
	if err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}
	if _, err := f.session.RemovePost(context.Background(), post.ID); err != nil {
		t.Fatalf("RemovePost() error = %v", err)
	}
	if len(persister.deleted) != 0 {
		t.Errorf("deleting a never-pushed draft hit the backend: %v", persister.deleted)
	}

	if _, err := f.session.RemovePost(context.Background(), "a1"); err != nil {
		t.Fatalf("RemovePost() error = %v", err)
	}
	if len(persister.deleted) != 1 || persister.deleted[0] != "a1" {
		t.Errorf("deleted %v, want [a1]", persister.deleted)
	}
}
