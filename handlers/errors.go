package handlers

import (
	"errors"
	"net/http"
	"sistema_pip_go/services"

	"github.com/labstack/echo/v4"
)

// serviceError maps service layer errors onto HTTP responses. Validation
// failures become 400s with the offending field, missing records become
// 404s, anything else is a 500.
func serviceError(err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"field":   ve.Field,
			"message": ve.Message,
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Investigação não encontrada")
	}

	var ce *services.ConsistencyError
	if errors.As(err, &ce) {
		return echo.NewHTTPError(http.StatusInternalServerError, ce.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "Erro interno")
}
