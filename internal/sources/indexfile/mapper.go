package indexfile

import (
	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/logger"
)

// Mapper converts index records to domain posts and back.
type Mapper struct {
	logger logger.Logger
}

// NewMapper creates a new mapper instance.
func NewMapper(log logger.Logger) *Mapper {
	return &Mapper{logger: log}
}

// ToDomain converts wire records to domain posts, preserving order.
// Legacy records without a status get a load-time warning and default to
// published, since that is how the static site always treated them.
func (m *Mapper) ToDomain(records []Record) []domain.Post {
	posts := make([]domain.Post, 0, len(records))
	for _, rec := range records {
		status := domain.Status(rec.Status)
		if rec.Status == "" {
			m.logger.Warn("index record missing status, defaulting to published",
				logger.String("id", rec.ID),
				logger.String("title", rec.Title))
			status = domain.StatusPublished
		} else if !status.Valid() {
			m.logger.Warn("index record has unknown status, keeping as-is",
				logger.String("id", rec.ID),
				logger.String("status", rec.Status))
		}

		posts = append(posts, domain.Post{
			ID:      rec.ID,
			Title:   rec.Title,
			Author:  rec.Author,
			Date:    domain.TruncateDate(rec.Date),
			Summary: rec.Summary,
			Note:    rec.Note,
			Status:  status,
			MDFile:  rec.MDFile,
			Content: rec.Content,
		})
	}
	return posts
}

// FromDomain converts domain posts to wire records, preserving order.
func (m *Mapper) FromDomain(posts []domain.Post) []Record {
	records := make([]Record, 0, len(posts))
	for _, p := range posts {
		records = append(records, Record{
			ID:      p.ID,
			Title:   p.Title,
			Author:  p.Author,
			Date:    p.Date,
			Summary: p.Summary,
			MDFile:  p.MDFile,
			Content: p.Content,
			Status:  string(p.Status),
			Note:    p.Note,
		})
	}
	return records
}
