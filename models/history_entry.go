package models

import (
	"time"
)

// History entry kinds, one per logical mutation type
const (
	HistoryKindCreation          = "creation"
	HistoryKindEdit              = "edit"
	HistoryKindDiligence         = "diligence"
	HistoryKindAttachmentAdded   = "attachment-added"
	HistoryKindAttachmentRemoved = "attachment-removed"
)

// ActorSystem is recorded when no acting user name is supplied
const ActorSystem = "System"

// HistoryEntry is an immutable audit row describing one mutation of an
// investigation. Rows are never updated after creation; deleting the
// owning investigation cascades to its entries.
type HistoryEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvestigationID uint   `gorm:"not null;index" json:"investigation_id"`
	Actor           string `gorm:"size:100" json:"actor"`
	Description     string `gorm:"type:text;not null" json:"description"`
	Kind            string `gorm:"size:50" json:"kind"`
}

// TableName specifies the table name for HistoryEntry model
func (HistoryEntry) TableName() string {
	return "history_entries"
}
