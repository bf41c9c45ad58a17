package domain

// Status is the publication state of a post.
type Status string

const (
	StatusPublished Status = "published"
	StatusHidden    Status = "hidden"
	StatusDraft     Status = "draft"
)

// Valid reports whether s is one of the known publication states.
func (s Status) Valid() bool {
	switch s {
	case StatusPublished, StatusHidden, StatusDraft:
		return true
	}
	return false
}

// Post represents the canonical in-memory form of one blog entry.
//
// It is NOT tied to the index file layout or the backend API payloads.
// All sources are mapped into this structure.
type Post struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the stable unique identifier. Assigned at creation and never
	// reused after removal within a session. Backend ids are numeric
	// strings, client-generated ids are UUIDs.
	ID string

	// ─────────────────────────────
	// Editable metadata
	// ─────────────────────────────

	// Title is a non-empty display string.
	Title string

	// Author is a non-empty display string.
	Author string

	// Date is the publication date, canonical form YYYY-MM-DD.
	// Source timestamps are truncated to 10 characters on load.
	Date string

	// Summary is an optional short description.
	Summary string

	// Note is optional editor-facing text, never published.
	Note string

	// Status gates public visibility.
	Status Status

	// ─────────────────────────────
	// Body reference
	// ─────────────────────────────

	// MDFile names the Markdown file in the posts directory
	// (static profile). Empty when the body lives inline.
	MDFile string

	// Content holds the raw Markdown body when the backend stores it
	// inline (backend profile). Empty in the static profile.
	Content string
}

// TruncateDate normalizes a date or timestamp string to YYYY-MM-DD.
func TruncateDate(val string) string {
	if len(val) > 10 {
		return val[:10]
	}
	return val
}
