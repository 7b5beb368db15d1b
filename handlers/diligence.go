package handlers

import (
	"net/http"
	"sistema_pip_go/db"
	"sistema_pip_go/middleware"
	"sistema_pip_go/services"

	"github.com/labstack/echo/v4"
)

// AddDiligenceHandler appends a timestamped diligence to an
// investigation's running log
func AddDiligenceHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	description := c.FormValue("description")

	inv, err := services.AddDiligence(db.DB, id, user.Name, description)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"investigation": toResponse(inv),
	})
}
