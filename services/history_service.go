package services

import (
	"errors"
	"fmt"
	"sistema_pip_go/models"
	"strings"

	"gorm.io/gorm"
)

// actorName falls back to the system actor when no display name is given
func actorName(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return models.ActorSystem
	}
	return actor
}

// RecordCreation appends the mandatory "creation" history entry. It is
// always called in the same transaction as the investigation insert.
func RecordCreation(tx *gorm.DB, inv *models.Investigation, actor string) error {
	name := actorName(actor)
	entry := models.HistoryEntry{
		InvestigationID: inv.ID,
		Actor:           name,
		Kind:            models.HistoryKindCreation,
		Description:     fmt.Sprintf("Investigação criada por %s", name),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record creation history: %w", err)
	}
	return nil
}

// RecordEdit appends one consolidated "edit" entry for a whole edit
// submission. A no-op edit (empty diff) records nothing: multiple field
// changes collapse into a single entry, never one entry per field.
func RecordEdit(tx *gorm.DB, inv *models.Investigation, actor string, changes []FieldChange) error {
	if len(changes) == 0 {
		return nil
	}

	name := actorName(actor)
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, c.Line())
	}

	entry := models.HistoryEntry{
		InvestigationID: inv.ID,
		Actor:           name,
		Kind:            models.HistoryKindEdit,
		Description:     fmt.Sprintf("Investigação editada por %s:\n%s", name, strings.Join(lines, "\n")),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record edit history: %w", err)
	}
	return nil
}

// RecordDiligence appends one "diligence" entry carrying the raw
// diligence text (not the formatted block stored on the record).
func RecordDiligence(tx *gorm.DB, inv *models.Investigation, actor, text string) error {
	entry := models.HistoryEntry{
		InvestigationID: inv.ID,
		Actor:           actorName(actor),
		Kind:            models.HistoryKindDiligence,
		Description:     text,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record diligence history: %w", err)
	}
	return nil
}

// RecordAttachmentEvent appends an "attachment-added" or
// "attachment-removed" entry naming the file and actor.
func RecordAttachmentEvent(tx *gorm.DB, inv *models.Investigation, actor, filename string, added bool) error {
	name := actorName(actor)
	kind := models.HistoryKindAttachmentAdded
	description := fmt.Sprintf("Anexo '%s' adicionado por %s", filename, name)
	if !added {
		kind = models.HistoryKindAttachmentRemoved
		description = fmt.Sprintf("Anexo '%s' removido por %s", filename, name)
	}

	entry := models.HistoryEntry{
		InvestigationID: inv.ID,
		Actor:           name,
		Kind:            kind,
		Description:     description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record attachment history: %w", err)
	}
	return nil
}

// GetHistory returns an investigation's history, newest first
func GetHistory(database *gorm.DB, investigationID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := database.Where("investigation_id = ?", investigationID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return entries, nil
}

// CheckConsistency verifies the record/history contract for one
// investigation: every persisted record must carry its "creation" entry.
// Returns a ConsistencyError when violated. Diagnostic use only.
func CheckConsistency(database *gorm.DB, investigationID uint) error {
	var inv models.Investigation
	if err := database.First(&inv, investigationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch investigation: %w", err)
	}

	var count int64
	err := database.Model(&models.HistoryEntry{}).
		Where("investigation_id = ? AND kind = ?", investigationID, models.HistoryKindCreation).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count creation entries: %w", err)
	}
	if count == 0 {
		return &ConsistencyError{
			InvestigationID: investigationID,
			Message:         "no creation history entry",
		}
	}
	return nil
}
