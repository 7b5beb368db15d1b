package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sistema_pip_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func multipartFile(t *testing.T, filename, content string) *multipart.FileHeader {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = fw.Write([]byte(content))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	assert.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestValidateAttachmentUpload(t *testing.T) {
	err := ValidateAttachmentUpload(&multipart.FileHeader{Filename: "payload.exe", Size: 100})
	assert.True(t, IsValidation(err))

	err = ValidateAttachmentUpload(&multipart.FileHeader{Filename: "laudo.pdf", Size: MaxAttachmentSize + 1})
	assert.True(t, IsValidation(err))

	err = ValidateAttachmentUpload(&multipart.FileHeader{Filename: "laudo.pdf", Size: 100})
	assert.NoError(t, err)
}

func TestUploadAndDeleteAttachment(t *testing.T) {
	database := setupTestDB(t)
	uploadDir := t.TempDir()
	Storage = NewLocalStorage(uploadDir)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	file := multipartFile(t, "laudo_pericial.pdf", "%PDF-1.4 conteúdo")
	attachment, err := UploadAttachment(context.Background(), database, inv.ID, file, "Lucas")
	assert.NoError(t, err)
	assert.Equal(t, "laudo_pericial.pdf", attachment.FileName)
	assert.Equal(t, "Lucas", attachment.UploadedBy)
	assert.EqualValues(t, file.Size, attachment.FileSize)

	// File landed on disk under the generated key
	_, err = os.Stat(filepath.Join(uploadDir, attachment.StorageKey))
	assert.NoError(t, err)

	assert.EqualValues(t, 1, countHistory(t, database, inv.ID, models.HistoryKindAttachmentAdded))

	err = DeleteAttachment(context.Background(), database, inv.ID, attachment.ID, "Odon")
	assert.NoError(t, err)

	_, err = GetAttachment(database, inv.ID, attachment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(filepath.Join(uploadDir, attachment.StorageKey))
	assert.True(t, os.IsNotExist(err))

	assert.EqualValues(t, 1, countHistory(t, database, inv.ID, models.HistoryKindAttachmentRemoved))
}

func TestUploadAttachmentRejectsBadExtension(t *testing.T) {
	database := setupTestDB(t)
	Storage = NewLocalStorage(t.TempDir())

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	file := multipartFile(t, "script.sh", "#!/bin/sh")
	_, err = UploadAttachment(context.Background(), database, inv.ID, file, "Lucas")
	assert.True(t, IsValidation(err))

	attachments, err := ListAttachments(database, inv.ID)
	assert.NoError(t, err)
	assert.Empty(t, attachments)
}

func TestDeleteInvestigationCascades(t *testing.T) {
	database := setupTestDB(t)
	uploadDir := t.TempDir()
	Storage = NewLocalStorage(uploadDir)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	_, err = AddDiligence(database, inv.ID, "Lucas", "Oitiva realizada")
	assert.NoError(t, err)

	file := multipartFile(t, "foto.png", "png-bytes")
	attachment, err := UploadAttachment(context.Background(), database, inv.ID, file, "Lucas")
	assert.NoError(t, err)

	err = DeleteInvestigation(context.Background(), database, inv.ID)
	assert.NoError(t, err)

	_, err = GetInvestigation(database, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.EqualValues(t, 0, countHistory(t, database, inv.ID, ""))

	attachments, err := ListAttachments(database, inv.ID)
	assert.NoError(t, err)
	assert.Empty(t, attachments)

	_, err = os.Stat(filepath.Join(uploadDir, attachment.StorageKey))
	assert.True(t, os.IsNotExist(err))
}
