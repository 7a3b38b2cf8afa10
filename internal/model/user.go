// Package model defines database models
package model

// DefaultImageFile is the avatar every account starts with
const DefaultImageFile = "default.jpg"

type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:120;not null" json:"-"`
	ImageFile string `gorm:"size:64;not null;default:default.jpg" json:"image_file"`
	Password  string `gorm:"not null" json:"-"` // One-way hash, never the plaintext

	Posts []Post `gorm:"foreignKey:UserID" json:"-"`
}
