package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"sistema_pip_go/models"
	"strings"

	"gorm.io/gorm"
)

// MaxAttachmentSize is the upload limit for a single attachment (16MB)
const MaxAttachmentSize = 16 * 1024 * 1024

// allowedAttachmentExts are the accepted upload extensions
var allowedAttachmentExts = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

// ValidateAttachmentUpload checks extension and size limits for an upload
func ValidateAttachmentUpload(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAttachmentExts[ext] {
		return &ValidationError{Field: "Arquivo", Message: fmt.Sprintf("extensão '%s' não permitida", ext)}
	}
	if file.Size > MaxAttachmentSize {
		return &ValidationError{Field: "Arquivo", Message: "arquivo excede o limite de 16MB"}
	}
	return nil
}

// UploadAttachment stores the file and persists its metadata row together
// with the "attachment-added" history entry, in one transaction. If the
// transaction fails, the stored file is removed again.
func UploadAttachment(ctx context.Context, database *gorm.DB, investigationID uint, file *multipart.FileHeader, actor string) (*models.Attachment, error) {
	inv, err := GetInvestigation(database, investigationID)
	if err != nil {
		return nil, err
	}

	if err := ValidateAttachmentUpload(file); err != nil {
		return nil, err
	}

	key := GenerateAttachmentKey(investigationID, file.Filename)
	result, err := Storage.Upload(ctx, file, key)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := &models.Attachment{
		InvestigationID: investigationID,
		FileName:        filepath.Base(file.Filename),
		StorageKey:      result.Key,
		MimeType:        result.MimeType,
		FileSize:        result.FileSize,
		UploadedBy:      actorName(actor),
	}

	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attachment).Error; err != nil {
			return fmt.Errorf("failed to create attachment record: %w", err)
		}
		return RecordAttachmentEvent(tx, inv, actor, attachment.FileName, true)
	})
	if err != nil {
		if delErr := Storage.Delete(ctx, result.Key); delErr != nil {
			log.Printf("[STORAGE] Failed to clean up attachment file %s: %v", result.Key, delErr)
		}
		return nil, err
	}

	return attachment, nil
}

// GetAttachment fetches one attachment scoped to its investigation
func GetAttachment(database *gorm.DB, investigationID, attachmentID uint) (*models.Attachment, error) {
	var attachment models.Attachment
	err := database.Where("investigation_id = ?", investigationID).
		First(&attachment, attachmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	return &attachment, nil
}

// ListAttachments returns an investigation's attachments, newest first
func ListAttachments(database *gorm.DB, investigationID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := database.Where("investigation_id = ?", investigationID).
		Order("created_at DESC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}
	return attachments, nil
}

// DeleteAttachment removes the file (best-effort) and deletes the
// metadata row together with the "attachment-removed" history entry.
// A file-deletion failure is logged and never blocks the record delete.
func DeleteAttachment(ctx context.Context, database *gorm.DB, investigationID, attachmentID uint, actor string) error {
	inv, err := GetInvestigation(database, investigationID)
	if err != nil {
		return err
	}

	attachment, err := GetAttachment(database, investigationID, attachmentID)
	if err != nil {
		return err
	}

	if err := Storage.Delete(ctx, attachment.StorageKey); err != nil {
		log.Printf("[STORAGE] Failed to delete attachment file %s: %v", attachment.StorageKey, err)
	}

	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(attachment).Error; err != nil {
			return fmt.Errorf("failed to delete attachment record: %w", err)
		}
		return RecordAttachmentEvent(tx, inv, actor, attachment.FileName, false)
	})
}

// DeleteInvestigation removes an investigation with its history and
// attachments. Attachment files are deleted from storage first,
// best-effort; a failure there is logged and never blocks the database
// delete.
func DeleteInvestigation(ctx context.Context, database *gorm.DB, id uint) error {
	if _, err := GetInvestigation(database, id); err != nil {
		return err
	}

	attachments, err := ListAttachments(database, id)
	if err != nil {
		return err
	}
	for _, a := range attachments {
		if err := Storage.Delete(ctx, a.StorageKey); err != nil {
			log.Printf("[STORAGE] Failed to delete attachment file %s: %v", a.StorageKey, err)
		}
	}

	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("investigation_id = ?", id).Delete(&models.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete history entries: %w", err)
		}
		if err := tx.Where("investigation_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachment records: %w", err)
		}
		if err := tx.Delete(&models.Investigation{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete investigation: %w", err)
		}
		return nil
	})
}
