package handlers

import (
	"net/http"
	"sistema_pip_go/db"
	"sistema_pip_go/models"
	"sistema_pip_go/services"

	"github.com/labstack/echo/v4"
)

// DashboardHandler returns the summary counts and the most recent
// investigations.
func DashboardHandler(c echo.Context) error {
	var total, inProgress, concluded int64

	if err := db.DB.Model(&models.Investigation{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count investigations")
	}
	if err := db.DB.Model(&models.Investigation{}).
		Where("status = ?", models.StatusInProgress).
		Count(&inProgress).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count investigations")
	}
	if err := db.DB.Model(&models.Investigation{}).
		Where("status = ?", models.StatusConcluded).
		Count(&concluded).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count investigations")
	}

	var recent []models.Investigation
	if err := db.DB.Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch recent investigations")
	}

	// Overdue and approaching counts are derived, so classify in memory.
	var open []models.Investigation
	if err := db.DB.Where("status = ?", models.StatusInProgress).Find(&open).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch open investigations")
	}
	var overdue, approaching int
	for i := range open {
		schedule := services.DeriveSchedule(&open[i])
		if schedule.Overdue {
			overdue++
		} else if schedule.ApproachingDeadline {
			approaching++
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":                total,
		"in_progress":          inProgress,
		"concluded":            concluded,
		"overdue":              overdue,
		"approaching_deadline": approaching,
		"recent":               recent,
	})
}
