package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/utils"
)

// Client consumes the management API of a running blog backend. The API
// is someone else's contract; this client only speaks it, it does not
// design it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// New creates a backend API client.
func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// indexRecord is the payload shape of GET /api/posts/export_json.
type indexRecord struct {
	ID      json.Number `json:"id"`
	Title   string      `json:"title"`
	Author  string      `json:"author_name"`
	Date    string      `json:"date_posted"`
	Summary string      `json:"brief_summary"`
	Status  string      `json:"status"`
	Note    string      `json:"note"`
}

// LoadIndex fetches the full post index from the backend.
func (c *Client) LoadIndex(ctx context.Context) ([]domain.Post, error) {
	data, err := c.get(ctx, c.baseURL+"/api/posts/export_json")
	if err != nil {
		return nil, &domain.LoadError{Resource: "index", Err: err}
	}

	var records []indexRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &domain.LoadError{Resource: "index", Err: fmt.Errorf("failed to parse export json: %w", err)}
	}

	posts := make([]domain.Post, 0, len(records))
	for _, rec := range records {
		status := domain.Status(rec.Status)
		if rec.Status == "" {
			c.logger.Warn("backend record missing status, defaulting to published",
				logger.String("id", rec.ID.String()))
			status = domain.StatusPublished
		}
		posts = append(posts, domain.Post{
			ID:      rec.ID.String(),
			Title:   rec.Title,
			Author:  rec.Author,
			Date:    domain.TruncateDate(rec.Date),
			Summary: rec.Summary,
			Note:    rec.Note,
			Status:  status,
		})
	}

	c.logger.Info("loaded index from backend",
		logger.Int("count", len(posts)))
	return posts, nil
}

// FetchBody downloads the raw Markdown body of a post by id.
func (c *Client) FetchBody(ctx context.Context, post domain.Post) (string, error) {
	data, err := c.get(ctx, fmt.Sprintf("%s/api/posts/%s/md", c.baseURL, post.ID))
	if err != nil {
		return "", &domain.LoadError{Resource: "post " + post.ID, Err: err}
	}
	return string(data), nil
}

// ReplaceBody overwrites the stored Markdown content of a post. A non-2xx
// response surfaces as an UploadError; success is never assumed.
func (c *Client) ReplaceBody(ctx context.Context, post domain.Post, text string) error {
	endpoint := fmt.Sprintf("%s/api/posts/%s/md", c.baseURL, post.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return &domain.UploadError{Resource: "post " + post.ID, Err: err}
	}
	req.Header.Set("Content-Type", "text/markdown; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.UploadError{Resource: "post " + post.ID, Err: err}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UploadError{Resource: "post " + post.ID, Status: resp.StatusCode}
	}

	c.logger.Info("replaced post body on backend",
		logger.String("id", post.ID))
	return nil
}

// EditPost submits metadata changes through the form endpoint. The
// backend answers with a redirect back to the management page; any
// non-error final response counts as accepted.
func (c *Client) EditPost(ctx context.Context, post domain.Post) error {
	endpoint := fmt.Sprintf("%s/management/posts/%s/edit", c.baseURL, post.ID)
	return c.postForm(ctx, endpoint, formValues(post))
}

// CreatePost submits a new post through the form endpoint.
func (c *Client) CreatePost(ctx context.Context, post domain.Post) error {
	return c.postForm(ctx, c.baseURL+"/management/posts/new", formValues(post))
}

// DeletePost removes a post. The endpoint is link-shaped (GET) on the
// backend, confirmation is the caller's job.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if _, err := c.get(ctx, fmt.Sprintf("%s/api/posts/%s/delete", c.baseURL, id)); err != nil {
		return &domain.UploadError{Resource: "post " + id, Err: err}
	}
	return nil
}

func formValues(post domain.Post) url.Values {
	form := url.Values{}
	form.Set("title", post.Title)
	form.Set("author", post.Author)
	form.Set("date", post.Date)
	form.Set("summary", post.Summary)
	form.Set("note", post.Note)
	form.Set("status", string(post.Status))
	if post.Content != "" {
		form.Set("content", post.Content)
	}
	return form
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &domain.UploadError{Resource: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.UploadError{Resource: endpoint, Err: err}
	}
	defer utils.Close(resp.Body)

	// Redirect-style endpoints: the client follows the redirect, so
	// anything below 400 after following means the form was accepted.
	if resp.StatusCode >= 400 {
		return &domain.UploadError{Resource: endpoint, Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
