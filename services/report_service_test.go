package services

import (
	"sistema_pip_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateInvestigationReport(t *testing.T) {
	intake := models.DateOnly(time.Now())
	forecast := intake.AddDate(0, 0, models.DefaultForecastDays)
	inv := &models.Investigation{
		ID:                  7,
		Responsible:         "Lucas",
		Status:              models.StatusInProgress,
		Subject:             "Conduta incompatível",
		AccusedName:         "Fulano de Tal",
		ObjectSpecification: "Apuração de denúncia anônima sobre irregularidades no setor.",
		Year:                2026,
		IntakeDate:          &intake,
		ForecastDate:        &forecast,
	}
	history := []models.HistoryEntry{
		{
			InvestigationID: 7,
			Actor:           "Lucas",
			Kind:            models.HistoryKindCreation,
			Description:     "Investigação criada por Lucas",
			CreatedAt:       time.Now(),
		},
	}

	pdfBytes, err := GenerateInvestigationReport(inv, history, "Odon")
	assert.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
