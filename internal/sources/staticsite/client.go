package staticsite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/sources/indexfile"
	"github.com/yewfence/blogctl/internal/utils"
)

// ArtifactWriter receives Markdown bodies that cannot be written back to
// the static site directly. The export package provides the real one.
type ArtifactWriter interface {
	WriteMarkdown(name string, content []byte) (string, error)
}

// Client reads a statically hosted blog: an index document plus a posts
// directory of Markdown files. The site is read-only; "replacing" a body
// only produces a local artifact the editor deploys by hand.
type Client struct {
	indexURL     string
	postsBaseURL string
	http         *http.Client
	artifacts    ArtifactWriter
	mapper       *indexfile.Mapper
	logger       logger.Logger
	timeNow      func() time.Time
}

// New creates a static-site client.
func New(indexURL, postsBaseURL string, timeout time.Duration, artifacts ArtifactWriter, log logger.Logger) *Client {
	return &Client{
		indexURL:     indexURL,
		postsBaseURL: strings.TrimRight(postsBaseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		artifacts:    artifacts,
		mapper:       indexfile.NewMapper(log),
		logger:       log,
		timeNow:      time.Now,
	}
}

// LoadIndex fetches and parses the index resource. The request is
// cache-busted so the editor always observes the latest exported copy.
func (c *Client) LoadIndex(ctx context.Context) ([]domain.Post, error) {
	data, err := c.get(ctx, c.indexURL)
	if err != nil {
		return nil, &domain.LoadError{Resource: "index", Err: err}
	}

	records, err := indexfile.Decode(data)
	if err != nil {
		return nil, &domain.LoadError{Resource: "index", Err: err}
	}

	c.logger.Info("loaded index from static site",
		logger.Int("count", len(records)))

	return c.mapper.ToDomain(records), nil
}

// FetchBody retrieves the Markdown body referenced by post.MDFile.
func (c *Client) FetchBody(ctx context.Context, post domain.Post) (string, error) {
	if post.MDFile == "" {
		return "", &domain.LoadError{
			Resource: "markdown",
			Err:      fmt.Errorf("post %s has no md_file reference", post.ID),
		}
	}

	data, err := c.get(ctx, c.postsBaseURL+"/"+post.MDFile)
	if err != nil {
		return "", &domain.LoadError{Resource: post.MDFile, Err: err}
	}
	return string(data), nil
}

// ReplaceBody cannot mutate the static site. It writes the new content as
// a local artifact named after the referenced file and logs where the
// editor has to put it. Server state is never touched.
func (c *Client) ReplaceBody(ctx context.Context, post domain.Post, text string) error {
	if post.MDFile == "" {
		return &domain.UploadError{
			Resource: "markdown",
			Err:      fmt.Errorf("post %s has no md_file reference", post.ID),
		}
	}

	path, err := c.artifacts.WriteMarkdown(post.MDFile, []byte(text))
	if err != nil {
		return &domain.UploadError{Resource: post.MDFile, Err: err}
	}

	c.logger.Info("wrote replacement body, deploy it by hand",
		logger.String("artifact", path),
		logger.String("target", "posts/"+post.MDFile))
	return nil
}

// get performs a cache-busted GET and returns the body bytes.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	busted, err := cacheBust(rawURL, c.timeNow())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, busted, nil)
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

// cacheBust appends a throwaway timestamp parameter, the same trick the
// static pages use to dodge stale CDN copies.
func cacheBust(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
