package handlers

import (
	"fmt"
	"net/http"
	"sistema_pip_go/db"
	"sistema_pip_go/middleware"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// InvestigationReportHandler generates the PDF dossier for one
// investigation
func InvestigationReportHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	inv, err := services.GetInvestigation(db.DB, id)
	if err != nil {
		return serviceError(err)
	}

	history, err := services.GetHistory(db.DB, inv.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch history")
	}

	pdfBytes, err := services.GenerateInvestigationReport(inv, history, user.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
	}

	filename := fmt.Sprintf("investigacao_%d_%s.pdf", inv.ID, time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))

	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

// ExportInvestigationsHandler streams the filtered investigation list as
// an XLSX workbook
func ExportInvestigationsHandler(c echo.Context) error {
	query := db.DB.Model(&models.Investigation{})

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if year := c.QueryParam("year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			query = query.Where("year = ?", y)
		}
	}
	if responsible := c.QueryParam("responsible"); responsible != "" {
		query = query.Where("responsible = ?", responsible)
	}

	var investigations []models.Investigation
	if err := query.Order("created_at DESC").Find(&investigations).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch investigations")
	}

	workbook, err := services.BuildInvestigationsWorkbook(investigations)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build workbook")
	}
	defer workbook.Close()

	filename := fmt.Sprintf("investigacoes_%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	_, err = workbook.WriteTo(c.Response().Writer)
	return err
}
