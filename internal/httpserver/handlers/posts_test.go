package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yewfence/blogctl/internal/auth"
	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/editing"
	"github.com/yewfence/blogctl/internal/gate"
	"github.com/yewfence/blogctl/internal/httpserver/deps"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/repository"
)

type staticSource struct{ posts []domain.Post }

func (s *staticSource) LoadIndex(ctx context.Context) ([]domain.Post, error) {
	out := make([]domain.Post, len(s.posts))
	copy(out, s.posts)
	return out, nil
}

type staticBodies struct{ bodies map[string]string }

func (s *staticBodies) FetchBody(ctx context.Context, post domain.Post) (string, error) {
	return s.bodies[post.ID], nil
}

func (s *staticBodies) ReplaceBody(ctx context.Context, post domain.Post, text string) error {
	return nil
}

func testDeps(t *testing.T, opened bool) deps.Deps {
	t.Helper()

	creds := auth.NewCredentials(&auth.MemoryStorage{})
	if err := creds.EnsureInitialized("123456"); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}
	session := editing.New(editing.Options{
		Auth: auth.NewSession(creds),
		Repo: repository.New(&staticSource{posts: []domain.Post{
			{ID: "a1", Title: "Hello", Author: "YewFence", Date: "2026-01-02", Status: domain.StatusPublished, MDFile: "hello.md"},
		}}, nil),
		Bodies: &staticBodies{bodies: map[string]string{"a1": "# Hello\n\nbody text"}},
		Gate:   gate.New(),
		Logger: logger.Nop(),
	})

	if opened {
		if err := session.Login("123456"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if err := session.Open(context.Background()); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
	}

	return deps.Deps{
		Logger:    logger.Nop(),
		StartTime: time.Now(),
		Session:   session,
	}
}

func testRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", Healthz(d))
	r.Get("/api/posts", ListPosts(d))
	r.Get("/api/posts/{id}/preview", PreviewPost(d))
	r.Get("/api/posts/{id}/md", DownloadMarkdown(d))
	return r
}

func TestListPosts(t *testing.T) {
	router := testRouter(testDeps(t, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var posts []domain.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "a1" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestListPostsBeforeOpen(t *testing.T) {
	router := testRouter(testDeps(t, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before the session is ready", rec.Code)
	}
}

func TestPreviewPost(t *testing.T) {
	router := testRouter(testDeps(t, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/a1/preview", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<h1") {
		t.Errorf("preview kept the duplicate leading title: %q", body)
	}
	if !strings.Contains(body, "body text") {
		t.Errorf("preview lost the body: %q", body)
	}
}

func TestPreviewPostNotFound(t *testing.T) {
	router := testRouter(testDeps(t, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/ghost/preview", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadMarkdown(t *testing.T) {
	router := testRouter(testDeps(t, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/a1/md", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "# Hello\n\nbody text" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(testDeps(t, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v", resp["status"])
	}
	if resp["state"] != "ready" {
		t.Errorf("state field = %v", resp["state"])
	}
}
