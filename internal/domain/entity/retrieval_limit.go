package entity

import "time"

// RetrievalLimit tracks how many files a user has pulled in the current
// 24h cycle and whether the user must verify before pulling more.
type RetrievalLimit struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	FilesRetrieved       int       `gorm:"not null;default:0" json:"files_retrieved"`
	LastReset            time.Time `gorm:"not null;index" json:"last_reset"`
	VerificationRequired bool      `gorm:"not null;default:false;index" json:"verification_required"`
	CreatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RetrievalLimit) TableName() string {
	return "user_retrieval_limits"
}

// ResetDue reports whether the rolling window has elapsed since the last reset.
func (r *RetrievalLimit) ResetDue(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastReset) >= window
}
