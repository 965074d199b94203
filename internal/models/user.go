package models

import "time"

// User is a registered account. A user stays unverified, with a pending
// VerificationToken, until the email verification link is followed.
type User struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Email             string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash      string    `json:"-" gorm:"type:varchar(255);not null"`
	IsVerified        bool      `json:"is_verified" gorm:"not null;default:false"`
	VerificationToken *string   `json:"-" gorm:"uniqueIndex;type:varchar(64)"`
	AvatarURL         *string   `json:"avatar_url"`
	Contacts          []Contact `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}
