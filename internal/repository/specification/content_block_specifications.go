package specification

import (
	"time"

	"taxii-services/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentBlockSpecification narrows content blocks in SQL and in memory.
// collections lists the ids of every collection the block is attached to.
type ContentBlockSpecification interface {
	Specification
	IsSatisfiedBy(block *entity.ContentBlock, collections []uuid.UUID) bool
}

// ContentBlockOrdering is implemented by specifications that sort results.
type ContentBlockOrdering interface {
	Less(a, b *entity.ContentBlock) bool
}

// InCollection keeps blocks attached to a collection.
type InCollection struct {
	CollectionID uuid.UUID
}

func (s InCollection) Apply(db *gorm.DB) *gorm.DB {
	members := db.Session(&gorm.Session{NewDB: true}).
		Table("collection_content_blocks").
		Select("content_block_id").
		Where("collection_id = ?", s.CollectionID)
	return db.Where("id IN (?)", members)
}

func (s InCollection) IsSatisfiedBy(_ *entity.ContentBlock, collections []uuid.UUID) bool {
	for _, id := range collections {
		if id == s.CollectionID {
			return true
		}
	}
	return false
}

// TimestampAfter is the exclusive lower bound of a poll window.
type TimestampAfter struct {
	Time time.Time
}

func (s TimestampAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timestamp_label > ?", s.Time)
}

func (s TimestampAfter) IsSatisfiedBy(b *entity.ContentBlock, _ []uuid.UUID) bool {
	return b.TimestampLabel.After(s.Time)
}

// TimestampAtOrBefore is the inclusive upper bound of a poll window.
type TimestampAtOrBefore struct {
	Time time.Time
}

func (s TimestampAtOrBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timestamp_label <= ?", s.Time)
}

func (s TimestampAtOrBefore) IsSatisfiedBy(b *entity.ContentBlock, _ []uuid.UUID) bool {
	return !b.TimestampLabel.After(s.Time)
}

// BindingIn keeps blocks whose content binding is listed.
type BindingIn struct {
	Bindings []string
}

func (s BindingIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_binding IN ?", s.Bindings)
}

func (s BindingIn) IsSatisfiedBy(b *entity.ContentBlock, _ []uuid.UUID) bool {
	for _, v := range s.Bindings {
		if v == b.ContentBinding {
			return true
		}
	}
	return false
}

// BlockIDs keeps the listed blocks.
type BlockIDs struct {
	IDs []uuid.UUID
}

func (s BlockIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id IN ?", s.IDs)
}

func (s BlockIDs) IsSatisfiedBy(b *entity.ContentBlock, _ []uuid.UUID) bool {
	for _, id := range s.IDs {
		if id == b.Id {
			return true
		}
	}
	return false
}

// OrderByTimestampLabel sorts oldest first, ties broken by arrival.
type OrderByTimestampLabel struct{}

func (s OrderByTimestampLabel) Apply(db *gorm.DB) *gorm.DB {
	return OrderBy{Field: "timestamp_label"}.Apply(db).Order("created_at ASC")
}

func (s OrderByTimestampLabel) IsSatisfiedBy(*entity.ContentBlock, []uuid.UUID) bool {
	return true
}

func (s OrderByTimestampLabel) Less(a, b *entity.ContentBlock) bool {
	if a.TimestampLabel.Equal(b.TimestampLabel) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.TimestampLabel.Before(b.TimestampLabel)
}
