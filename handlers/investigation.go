package handlers

import (
	"net/http"
	"sistema_pip_go/db"
	"sistema_pip_go/middleware"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"strconv"

	"github.com/labstack/echo/v4"
)

// investigationResponse is an investigation plus its derived deadline
// state, which is never persisted.
type investigationResponse struct {
	models.Investigation
	Schedule services.Schedule `json:"schedule"`
}

func toResponse(inv *models.Investigation) investigationResponse {
	return investigationResponse{
		Investigation: *inv,
		Schedule:      services.DeriveSchedule(inv),
	}
}

// GetInvestigationsHandler returns a list of investigations with
// filtering and pagination
func GetInvestigationsHandler(c echo.Context) error {
	status := c.QueryParam("status")
	responsible := c.QueryParam("responsible")
	year := c.QueryParam("year")
	complexity := c.QueryParam("complexity")
	keyword := c.QueryParam("keyword")

	page := 1
	limit := 20
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	query := db.DB.Model(&models.Investigation{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if responsible != "" {
		query = query.Where("responsible = ?", responsible)
	}
	if year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			query = query.Where("year = ?", y)
		}
	}
	if complexity != "" {
		query = query.Where("complexity = ?", complexity)
	}
	if keyword != "" {
		keyword = "%" + keyword + "%"
		query = query.Where(
			db.DB.Where("subject LIKE ?", keyword).
				Or("accused_name LIKE ?", keyword).
				Or("complainant LIKE ?", keyword).
				Or("process_ref LIKE ?", keyword).
				Or("origin_protocol LIKE ?", keyword),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count investigations")
	}

	offset := (page - 1) * limit
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	var investigations []models.Investigation
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&investigations).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch investigations")
	}

	data := make([]investigationResponse, 0, len(investigations))
	for i := range investigations {
		data = append(data, toResponse(&investigations[i]))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": data,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GetInvestigationDetailHandler returns one investigation with its
// history and attachments
func GetInvestigationDetailHandler(c echo.Context) error {
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

	attachments, err := services.ListAttachments(db.DB, inv.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch attachments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"investigation": toResponse(inv),
		"history":       history,
		"attachments":   attachments,
	})
}

// CreateInvestigationHandler creates a new investigation
func CreateInvestigationHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var input services.InvestigationInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Dados inválidos")
	}

	inv, err := services.CreateInvestigation(db.DB, input, user.Name)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, toResponse(inv))
}

// UpdateInvestigationHandler applies a field-by-field edit
func UpdateInvestigationHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var input services.InvestigationInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Dados inválidos")
	}

	inv, changes, err := services.EditInvestigation(db.DB, id, input, user.Name)
	if err != nil {
		return serviceError(err)
	}

	changed := make([]string, 0, len(changes))
	for _, ch := range changes {
		changed = append(changed, ch.Label)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"investigation":  toResponse(inv),
		"changed_fields": changed,
	})
}

// DeleteInvestigationHandler removes an investigation, its history and
// attachments. Admin only.
func DeleteInvestigationHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := services.DeleteInvestigation(c.Request().Context(), db.DB, id); err != nil {
		return serviceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "ID inválido")
	}
	return uint(id), nil
}
