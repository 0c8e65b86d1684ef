package entity

import "time"

// Verification contexts. The context a token was issued under decides what
// happens to the user's quota counters on successful redemption.
const (
	VerificationContextGeneral       = "general"
	VerificationContextLimitExceeded = "limit_exceeded"
)

// UserVerification stores the single pending or active verification record
// per Telegram user. Creating a new record for a user replaces the old one.
type UserVerification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	Token      string     `gorm:"size:32;not null;uniqueIndex" json:"-"`
	IsVerified bool       `gorm:"not null;default:false" json:"is_verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Context    string     `gorm:"size:20;not null;default:general" json:"context"`
	SubjectID  *string    `gorm:"size:32" json:"subject_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (UserVerification) TableName() string {
	return "user_verifications"
}

// IsActive reports whether the record grants access at the given time.
// A verified record with a past expiry is treated as absent even though the
// row may still exist until the janitor sweeps it.
func (v *UserVerification) IsActive(now time.Time) bool {
	return v.IsVerified && v.ExpiresAt != nil && v.ExpiresAt.After(now)
}
