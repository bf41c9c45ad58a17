// Package editing owns the lifecycle of one content-management session:
// authenticate, load the index once, then mutate the in-memory
// collection behind explicit confirmations until teardown.
package editing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yewfence/blogctl/internal/auth"
	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/export"
	"github.com/yewfence/blogctl/internal/gate"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/markdown"
	"github.com/yewfence/blogctl/internal/repository"
)

// State is the session's position in its lifecycle. There is no
// terminal state; closing the program discards unsaved work.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateReady
	StateEditing
	StateExporting
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEditing:
		return "editing"
	case StateExporting:
		return "exporting"
	default:
		return "unknown"
	}
}

var (
	// ErrNotAuthenticated is returned when an operation requires a
	// logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotReady is returned when an operation runs before the index
	// has been loaded.
	ErrNotReady = errors.New("session not ready, load the index first")
	// ErrPostNotFound is returned for operations on an unknown post id.
	ErrPostNotFound = errors.New("post not found")
)

// BodyStore fetches and replaces post bodies. The static-site client
// and the backend client both satisfy it, which keeps the session
// identical across profiles.
type BodyStore interface {
	FetchBody(ctx context.Context, post domain.Post) (string, error)
	ReplaceBody(ctx context.Context, post domain.Post, text string) error
}

// Persister pushes metadata mutations to a backend. Only the backend
// profile provides one; the static profile persists through export.
type Persister interface {
	CreatePost(ctx context.Context, post domain.Post) error
	EditPost(ctx context.Context, post domain.Post) error
	DeletePost(ctx context.Context, id string) error
}

// RenderCache holds rendered HTML between previews. Optional.
type RenderCache interface {
	CacheRendered(ctx context.Context, postID, html string) error
	GetRendered(ctx context.Context, postID string) (string, error)
	Invalidate(ctx context.Context, postID string) error
	Flush(ctx context.Context) error
}

// Session drives the editing workflow. It is the single owner of the
// post collection; every destructive intent passes through the gate
// before it applies.
type Session struct {
	mu      sync.Mutex
	state   State
	unsaved map[string]bool // ids added locally, not yet pushed

	auth      *auth.Session
	repo      *repository.Posts
	bodies    BodyStore
	persister Persister // nil in the static profile
	gate      *gate.Gate
	renderer  *markdown.Renderer
	exporter  export.FileExporter
	cache     RenderCache // nil when redis is not configured
	logger    logger.Logger
}

// Options carries the session's collaborators.
type Options struct {
	Auth      *auth.Session
	Repo      *repository.Posts
	Bodies    BodyStore
	Persister Persister
	Gate      *gate.Gate
	Exporter  export.FileExporter
	Cache     RenderCache
	Logger    logger.Logger
}

// New assembles a session in the unauthenticated state.
func New(opts Options) *Session {
	return &Session{
		state:     StateUnauthenticated,
		unsaved:   make(map[string]bool),
		auth:      opts.Auth,
		repo:      opts.Repo,
		bodies:    opts.Bodies,
		persister: opts.Persister,
		gate:      opts.Gate,
		renderer:  markdown.NewRenderer(),
		exporter:  opts.Exporter,
		cache:     opts.Cache,
		logger:    opts.Logger,
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login verifies the password against the credential store. It does
// not load anything; Open does that.
func (s *Session) Login(password string) error {
	return s.auth.Login(password)
}

// Open loads the index. A load failure is fatal to the attempt: the
// session never reaches Ready with an empty-but-successful list, the
// caller sees the error and may retry Open.
func (s *Session) Open(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	if err := s.repo.Load(ctx); err != nil {
		s.mu.Lock()
		s.state = StateUnauthenticated
		s.mu.Unlock()
		return fmt.Errorf("failed to open session: %w", err)
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Info("session ready",
		logger.Int("posts", s.repo.Count()))
	return nil
}

// Posts returns a copy of the current collection in display order.
func (s *Session) Posts() ([]domain.Post, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	return s.repo.Snapshot(), nil
}

// Find returns one post by id.
func (s *Session) Find(id string) (domain.Post, error) {
	if err := s.requireReady(); err != nil {
		return domain.Post{}, err
	}
	post, ok := s.repo.Find(id)
	if !ok {
		return domain.Post{}, ErrPostNotFound
	}
	return post, nil
}

// AddPost inserts a fresh draft at the head of the collection. Adding
// is not destructive, so it is not gated; the draft only reaches the
// outside world through a later gated save or export.
func (s *Session) AddPost() (domain.Post, error) {
	if err := s.requireReady(); err != nil {
		return domain.Post{}, err
	}

	post := s.repo.Add(repository.Draft{})

	s.mu.Lock()
	s.unsaved[post.ID] = true
	s.mu.Unlock()

	s.logger.Info("added draft",
		logger.String("id", post.ID))
	return post, nil
}

// SavePost validates and applies a metadata patch after confirmation.
// The first return value reports whether the change was applied; a
// declined confirmation is (false, nil), not an error.
func (s *Session) SavePost(ctx context.Context, id string, patch domain.Patch) (bool, error) {
	if err := s.requireReady(); err != nil {
		return false, err
	}

	post, ok := s.repo.Find(id)
	if !ok {
		return false, ErrPostNotFound
	}
	patched := post
	patch.Apply(&patched)
	if err := domain.ValidatePost(patched); err != nil {
		return false, err
	}

	if !s.gate.Confirm(ctx, "Save post", fmt.Sprintf("Save changes to %q?", patched.Title)) {
		return false, nil
	}

	s.enter(StateEditing)
	defer s.enter(StateReady)

	if !s.repo.Update(id, patch) {
		return false, ErrPostNotFound
	}

	if s.persister != nil {
		saved, _ := s.repo.Find(id)
		if err := s.pushMetadata(ctx, saved); err != nil {
			return false, err
		}
	}

	s.invalidate(ctx, id)
	s.logger.Info("saved post",
		logger.String("id", id))
	return true, nil
}

// RemovePost deletes a post after confirmation.
func (s *Session) RemovePost(ctx context.Context, id string) (bool, error) {
	if err := s.requireReady(); err != nil {
		return false, err
	}

	post, ok := s.repo.Find(id)
	if !ok {
		return false, ErrPostNotFound
	}

	if !s.gate.Confirm(ctx, "Remove post", fmt.Sprintf("Really remove %q? This cannot be undone.", post.Title)) {
		return false, nil
	}

	s.enter(StateEditing)
	defer s.enter(StateReady)

	s.mu.Lock()
	neverPushed := s.unsaved[id]
	delete(s.unsaved, id)
	s.mu.Unlock()

	if s.persister != nil && !neverPushed {
		if err := s.persister.DeletePost(ctx, id); err != nil {
			return false, err
		}
	}

	if !s.repo.Remove(id) {
		return false, ErrPostNotFound
	}

	s.invalidate(ctx, id)
	s.logger.Info("removed post",
		logger.String("id", id))
	return true, nil
}

// ReplaceBody overwrites a post's Markdown body after confirmation.
func (s *Session) ReplaceBody(ctx context.Context, id, text string) (bool, error) {
	if err := s.requireReady(); err != nil {
		return false, err
	}

	post, ok := s.repo.Find(id)
	if !ok {
		return false, ErrPostNotFound
	}

	if !s.gate.Confirm(ctx, "Replace body", fmt.Sprintf("Overwrite the body of %q?", post.Title)) {
		return false, nil
	}

	s.enter(StateEditing)
	defer s.enter(StateReady)

	if err := s.bodies.ReplaceBody(ctx, post, text); err != nil {
		return false, err
	}
	s.repo.Update(id, domain.Patch{Content: domain.String(text)})

	s.invalidate(ctx, id)
	s.logger.Info("replaced body",
		logger.String("id", id),
		logger.Int("bytes", len(text)))
	return true, nil
}

// RawBody returns a post's Markdown body untouched.
func (s *Session) RawBody(ctx context.Context, id string) (string, error) {
	body, _, err := s.fetchBody(ctx, id)
	return body, err
}

// PreviewBody escapes raw Markdown for inline plain-text display. Local
// and ungated.
func (s *Session) PreviewBody(ctx context.Context, id string) (string, error) {
	body, _, err := s.fetchBody(ctx, id)
	if err != nil {
		return "", err
	}
	return markdown.EscapePreview(body), nil
}

// RenderBody produces the HTML rendering of a post's body, with a
// leading title stripped when it duplicates the record title. Rendered
// output is cached when a cache is configured.
func (s *Session) RenderBody(ctx context.Context, id string) (string, error) {
	if s.cache != nil {
		if html, err := s.cache.GetRendered(ctx, id); err != nil {
			s.logger.Warn("render cache read failed",
				logger.String("id", id),
				logger.Error(err))
		} else if html != "" {
			return html, nil
		}
	}

	body, post, err := s.fetchBody(ctx, id)
	if err != nil {
		return "", err
	}

	html, err := s.renderer.Render(markdown.StripLeadingTitle(body, post.Title))
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.CacheRendered(ctx, id, html); err != nil {
			s.logger.Warn("render cache write failed",
				logger.String("id", id),
				logger.Error(err))
		}
	}
	return html, nil
}

// DownloadBody writes a post's body to an individual .md artifact named
// after the post title and returns the path. Reading is not gated.
func (s *Session) DownloadBody(ctx context.Context, id string) (string, error) {
	body, post, err := s.fetchBody(ctx, id)
	if err != nil {
		return "", err
	}

	name := post.Title
	if name == "" {
		name = post.ID
	}
	return s.exporter.WriteMarkdown(name, []byte(body))
}

// Export serializes the collection to the index artifact after
// confirmation. The collection itself is never mutated.
func (s *Session) Export(ctx context.Context) (string, error) {
	if err := s.requireReady(); err != nil {
		return "", err
	}

	if !s.gate.Confirm(ctx, "Export index", fmt.Sprintf("Export %d posts to %s?", s.repo.Count(), export.IndexFilename)) {
		return "", nil
	}

	s.enter(StateExporting)
	defer s.enter(StateReady)

	data, err := s.repo.Export()
	if err != nil {
		return "", err
	}
	path, err := s.exporter.WriteIndex(data)
	if err != nil {
		return "", err
	}

	s.markPushed()
	return path, nil
}

// ExportZip bundles every post body into one archive after
// confirmation.
func (s *Session) ExportZip(ctx context.Context) (string, error) {
	if err := s.requireReady(); err != nil {
		return "", err
	}

	if !s.gate.Confirm(ctx, "Export bodies", fmt.Sprintf("Bundle %d Markdown files into %s?", s.repo.Count(), export.ZipFilename)) {
		return "", nil
	}

	s.enter(StateExporting)
	defer s.enter(StateReady)

	files := make(map[string][]byte)
	for _, post := range s.repo.Snapshot() {
		body, _, err := s.fetchBody(ctx, post.ID)
		if err != nil {
			return "", err
		}
		name := post.Title
		if name == "" {
			name = post.ID
		}
		files[name] = []byte(body)
	}
	return s.exporter.WriteZip(files)
}

// Reload re-fetches the index, discarding every local edit. Destructive
// to unsaved work, so it is gated.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	if err := s.requireReady(); err != nil {
		return false, err
	}

	if !s.gate.Confirm(ctx, "Reload index", "Discard local edits and reload from the source?") {
		return false, nil
	}

	s.enter(StateLoading)

	if err := s.repo.Load(ctx); err != nil {
		// The collection is untouched on failure; the session stays usable.
		s.enter(StateReady)
		return false, err
	}

	s.mu.Lock()
	s.unsaved = make(map[string]bool)
	s.state = StateReady
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			s.logger.Warn("render cache flush failed", logger.Error(err))
		}
	}
	s.logger.Info("reloaded index",
		logger.Int("posts", s.repo.Count()))
	return true, nil
}

// ChangePassword replaces the stored credential after confirmation and
// ends the session, forcing a fresh login.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) (bool, error) {
	if !s.auth.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}

	if !s.gate.Confirm(ctx, "Change password", "Change the password? You will be logged out.") {
		return false, nil
	}

	if err := s.auth.ChangePassword(oldPassword, newPassword); err != nil {
		return false, err
	}

	s.enter(StateUnauthenticated)
	s.logger.Info("password changed, session ended")
	return true, nil
}

// Logout ends the session. Unsaved edits are discarded.
func (s *Session) Logout() {
	s.auth.Logout()
	s.enter(StateUnauthenticated)
}

// fetchBody returns a post's body, preferring in-memory content over a
// round trip to the store.
func (s *Session) fetchBody(ctx context.Context, id string) (string, domain.Post, error) {
	if err := s.requireReady(); err != nil {
		return "", domain.Post{}, err
	}
	post, ok := s.repo.Find(id)
	if !ok {
		return "", domain.Post{}, ErrPostNotFound
	}
	if post.Content != "" {
		return post.Content, post, nil
	}

	body, err := s.bodies.FetchBody(ctx, post)
	if err != nil {
		return "", domain.Post{}, err
	}
	return body, post, nil
}

// pushMetadata sends one post to the backend, creating it on first
// save.
func (s *Session) pushMetadata(ctx context.Context, post domain.Post) error {
	s.mu.Lock()
	create := s.unsaved[post.ID]
	s.mu.Unlock()

	if create {
		if err := s.persister.CreatePost(ctx, post); err != nil {
			return err
		}
	} else if err := s.persister.EditPost(ctx, post); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.unsaved, post.ID)
	s.mu.Unlock()
	return nil
}

// markPushed clears the unsaved set; an exported index carries every
// local draft.
func (s *Session) markPushed() {
	s.mu.Lock()
	s.unsaved = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Session) requireReady() error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnauthenticated || s.state == StateLoading {
		return ErrNotReady
	}
	return nil
}

func (s *Session) enter(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("render cache invalidation failed",
			logger.String("id", id),
			logger.Error(err))
	}
}
