package domain

// Patch carries a partial update for a post. Nil fields are left untouched,
// which lets the editor save a row without clobbering fields it never showed.
type Patch struct {
	Title   *string
	Author  *string
	Date    *string
	Summary *string
	Note    *string
	Status  *Status
	MDFile  *string
	Content *string
}

// Apply overwrites the editable fields of p from the patch.
// Identity is never touched.
func (pa Patch) Apply(p *Post) {
	if pa.Title != nil {
		p.Title = *pa.Title
	}
	if pa.Author != nil {
		p.Author = *pa.Author
	}
	if pa.Date != nil {
		p.Date = TruncateDate(*pa.Date)
	}
	if pa.Summary != nil {
		p.Summary = *pa.Summary
	}
	if pa.Note != nil {
		p.Note = *pa.Note
	}
	if pa.Status != nil {
		p.Status = *pa.Status
	}
	if pa.MDFile != nil {
		p.MDFile = *pa.MDFile
	}
	if pa.Content != nil {
		p.Content = *pa.Content
	}
}

// String returns a *string for patch literals.
func String(s string) *string { return &s }

// StatusPtr returns a *Status for patch literals.
func StatusPtr(s Status) *Status { return &s }
