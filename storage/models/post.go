package models

import "time"

const MaxPostLength = 140

const PostSearchKind = "post"

type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Body      string    `gorm:"size:140" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Language  string    `gorm:"size:8" json:"language,omitempty"`
}

// Posts are mirrored into the full-text index by body.

func (p *Post) SearchKind() string {
	return PostSearchKind
}

func (p *Post) SearchID() uint {
	return p.ID
}

func (p *Post) SearchFields() map[string]interface{} {
	return map[string]interface{}{
		"body":     p.Body,
		"language": p.Language,
	}
}
