package entity

import "time"

// Supported stored file kinds, mirroring the Telegram message payloads the
// bot can archive and resend.
const (
	FileTypeDocument  = "document"
	FileTypePhoto     = "photo"
	FileTypeVideo     = "video"
	FileTypeAnimation = "animation"
	FileTypeSticker   = "sticker"
)

// StoredFile is one archived file belonging to a retrievable file set.
// All files sharing a UniqueID are delivered together through one deep link.
type StoredFile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FileName        string    `gorm:"size:255" json:"file_name"`
	FileID          string    `gorm:"size:255;not null" json:"file_id"`
	FileType        string    `gorm:"size:20;not null" json:"file_type"`
	OriginalCaption string    `json:"original_caption"`
	FileLink        string    `gorm:"size:255" json:"file_link"`
	ChannelID       string    `gorm:"size:64" json:"channel_id"`
	StoredBy        int64     `gorm:"index" json:"stored_by"`
	IsMultiple      bool      `gorm:"not null;default:false" json:"is_multiple"`
	UniqueID        string    `gorm:"size:32;not null;index" json:"unique_id"`
	MessageID       int       `json:"message_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (StoredFile) TableName() string {
	return "stored_files"
}
