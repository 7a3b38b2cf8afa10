package model

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"size:100;not null" json:"title"`
	DatePosted time.Time `gorm:"not null;index" json:"date_posted"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	UserID     uint      `gorm:"not null;index" json:"-"`

	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// BeforeCreate stamps posts that were created without an explicit date
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.DatePosted.IsZero() {
		p.DatePosted = time.Now().UTC()
	}

	return nil
}
