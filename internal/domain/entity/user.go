package entity

import "time"

// User is a Telegram user who has interacted with the bot at least once.
// Kept for broadcast targeting and the status dashboard counters.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Username  string    `gorm:"size:64" json:"username"`
	FirstName string    `gorm:"size:128" json:"first_name"`
	LastName  string    `gorm:"size:128" json:"last_name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
