package handlers

import (
	"fmt"
	"io"
	"net/http"
	"sistema_pip_go/db"
	"sistema_pip_go/middleware"
	"sistema_pip_go/services"
	"strconv"

	"github.com/labstack/echo/v4"
)

// UploadAttachmentHandler receives a multipart upload and attaches it to
// an investigation
func UploadAttachmentHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Nenhum arquivo enviado")
	}

	attachment, err := services.UploadAttachment(c.Request().Context(), db.DB, id, file, user.Name)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, attachment)
}

// DownloadAttachmentHandler streams an attachment back to the client
func DownloadAttachmentHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ID inválido")
	}

	attachment, err := services.GetAttachment(db.DB, id, uint(attachmentID))
	if err != nil {
		return serviceError(err)
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), attachment.StorageKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Arquivo não encontrado no armazenamento")
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, attachment.FileName))
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)

	_, err = io.Copy(c.Response().Writer, reader)
	return err
}

// DeleteAttachmentHandler removes an attachment and records the event
func DeleteAttachmentHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ID inválido")
	}

	if err := services.DeleteAttachment(c.Request().Context(), db.DB, id, uint(attachmentID), user.Name); err != nil {
		return serviceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
