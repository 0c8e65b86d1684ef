package entity

// Admin holds per-admin posting preferences. Admin identity itself comes
// from the configured id list, not from this table.
type Admin struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	AdminID        int64  `gorm:"not null;uniqueIndex" json:"admin_id"`
	CustomCaption  string `json:"custom_caption"`
	CaptionEnabled bool   `gorm:"not null;default:true" json:"caption_enabled"`
}

func (Admin) TableName() string {
	return "admins"
}
