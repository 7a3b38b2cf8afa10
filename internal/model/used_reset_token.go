package model

import "time"

// UsedResetToken marks a password reset token as consumed. Rows are only
// needed until the token would have expired anyway
type UsedResetToken struct {
	ID        string    `gorm:"primaryKey;size:32"` // The token's jti claim
	UserID    uint      `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
	UsedAt    time.Time `gorm:"autoCreateTime"`
}
