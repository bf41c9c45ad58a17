package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/sources/indexfile"
)

// IndexSource loads the full ordered post collection from wherever it
// lives. The static-site client and the backend client both satisfy it.
type IndexSource interface {
	LoadIndex(ctx context.Context) ([]domain.Post, error)
}

// Posts is the in-memory ordered post collection owned by one editing
// session. Insertion order is display order; newly added posts are
// prepended. The collection is discarded on teardown, durability comes
// only from Export.
type Posts struct {
	mu         sync.RWMutex
	list       []domain.Post
	source     IndexSource
	lastLoad   time.Time
	defaultsFn func() Draft
	timeNow    func() time.Time
}

// Draft carries the caller-supplied fields of a new post. Anything left
// empty is filled with a sensible default by Add.
type Draft struct {
	Title   string
	Author  string
	Summary string
	MDFile  string
	Content string
}

// New creates an empty repository reading from source. defaults supplies
// the fallback field values for Add (deployment-configurable author).
func New(source IndexSource, defaults func() Draft) *Posts {
	if defaults == nil {
		defaults = func() Draft { return Draft{} }
	}
	return &Posts{
		source:     source,
		defaultsFn: defaults,
		timeNow:    time.Now,
	}
}

// Load replaces the collection with a fresh copy of the index resource.
// Source order is preserved. On failure the current collection is left
// untouched and the LoadError propagates to the caller.
func (p *Posts) Load(ctx context.Context) error {
	posts, err := p.source.LoadIndex(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = posts
	p.lastLoad = p.timeNow()
	return nil
}

// Add synthesizes a new post from the draft and prepends it.
// The id is client-generated and unique; date defaults to today and
// status to draft so a half-finished post is never published by accident.
func (p *Posts) Add(draft Draft) domain.Post {
	defaults := p.defaultsFn()
	if draft.Title == "" {
		draft.Title = defaults.Title
	}
	if draft.Author == "" {
		draft.Author = defaults.Author
	}
	if draft.MDFile == "" {
		draft.MDFile = defaults.MDFile
	}

	post := domain.Post{
		ID:      uuid.NewString(),
		Title:   draft.Title,
		Author:  draft.Author,
		Date:    domain.TruncateDate(p.timeNow().UTC().Format(time.RFC3339)),
		Summary: draft.Summary,
		Status:  domain.StatusDraft,
		MDFile:  draft.MDFile,
		Content: draft.Content,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = append([]domain.Post{post}, p.list...)
	return post
}

// Update overwrites the editable fields of the post with the given id.
// Returns false when the id is absent; callers treat that as a no-op
// since the UI only offers ids it just displayed.
func (p *Posts) Update(id string, patch domain.Patch) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.list {
		if p.list[i].ID == id {
			patch.Apply(&p.list[i])
			return true
		}
	}
	return false
}

// Remove deletes the first post with the given id. No-op when absent.
func (p *Posts) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.list {
		if p.list[i].ID == id {
			p.list = append(p.list[:i], p.list[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns a copy of the post with the given id.
func (p *Posts) Find(id string) (domain.Post, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := range p.list {
		if p.list[i].ID == id {
			return p.list[i], true
		}
	}
	return domain.Post{}, false
}

// Snapshot returns a copy of the collection in display order.
func (p *Posts) Snapshot() []domain.Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Post, len(p.list))
	copy(out, p.list)
	return out
}

// Count returns the number of posts in the collection.
func (p *Posts) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.list)
}

// LastLoad returns the timestamp of the last successful Load.
func (p *Posts) LastLoad() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastLoad
}

// Export serializes the collection as the pretty-printed index artifact,
// preserving current in-memory order. It never mutates the collection.
func (p *Posts) Export() ([]byte, error) {
	snapshot := p.Snapshot()
	records := make([]indexfile.Record, 0, len(snapshot))
	for _, post := range snapshot {
		records = append(records, indexfile.Record{
			ID:      post.ID,
			Title:   post.Title,
			Author:  post.Author,
			Date:    post.Date,
			Summary: post.Summary,
			MDFile:  post.MDFile,
			Content: post.Content,
			Status:  string(post.Status),
			Note:    post.Note,
		})
	}
	return indexfile.Encode(records)
}
