package models

import (
	"strconv"
	"time"
)

// Attachment is a file associated with an investigation. The storage key
// is server-generated and never derived from the original filename.
type Attachment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvestigationID uint `gorm:"not null;index" json:"investigation_id"`

	FileName   string `gorm:"not null" json:"file_name"` // original upload name
	StorageKey string `gorm:"not null" json:"-"`
	MimeType   string `json:"mime_type,omitempty"`
	FileSize   int64  `gorm:"not null" json:"file_size"`
	UploadedBy string `gorm:"size:100" json:"uploaded_by"`
}

// TableName specifies the table name for Attachment model
func (Attachment) TableName() string {
	return "attachments"
}

// DownloadURL returns the download route for this attachment
func (a *Attachment) DownloadURL() string {
	return "/api/investigations/" + strconv.FormatUint(uint64(a.InvestigationID), 10) +
		"/attachments/" + strconv.FormatUint(uint64(a.ID), 10)
}
