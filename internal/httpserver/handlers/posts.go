package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/editing"
	"github.com/yewfence/blogctl/internal/httpserver/deps"
	"github.com/yewfence/blogctl/internal/logger"
)

// ListPosts serves the current in-memory collection in display order.
func ListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := d.Session.Posts()
		if err != nil {
			writeSessionError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(posts)
	}
}

// PreviewPost serves the rendered HTML of one post body.
func PreviewPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		html, err := d.Session.RenderBody(r.Context(), id)
		if err != nil {
			writeSessionError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(html))
	}
}

// DownloadMarkdown serves one raw post body as an attachment.
func DownloadMarkdown(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		body, err := d.Session.RawBody(r.Context(), id)
		if err != nil {
			writeSessionError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".md"))
		_, _ = w.Write([]byte(body))
	}
}

// writeSessionError maps session errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, d deps.Deps, err error) {
	var lerr *domain.LoadError

	switch {
	case errors.Is(err, editing.ErrPostNotFound):
		http.Error(w, "post not found", http.StatusNotFound)
	case errors.Is(err, editing.ErrNotAuthenticated), errors.Is(err, editing.ErrNotReady):
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
	case errors.As(err, &lerr):
		d.Logger.Error("upstream fetch failed", logger.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
	default:
		d.Logger.Error("request failed", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
