package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/yewfence/blogctl/internal/httpserver/deps"
	"github.com/yewfence/blogctl/internal/httpserver/handlers"
)

func init() { Register(registerPosts) }

func registerPosts(r chi.Router, d deps.Deps) {
	r.Get("/api/posts", handlers.ListPosts(d))
	r.Get("/api/posts/{id}/preview", handlers.PreviewPost(d))
	r.Get("/api/posts/{id}/md", handlers.DownloadMarkdown(d))
}
