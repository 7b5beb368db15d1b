package services

import (
	"fmt"
	"sistema_pip_go/models"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []interface{}{
	"ID",
	"Responsável",
	"Status",
	"Origem",
	"Canal",
	"Protocolo de Origem",
	"Unidade de Origem",
	"Classificação",
	"Assunto",
	"Processo GDOC",
	"Ano",
	"Complexidade",
	"Nome do Denunciado",
	"Setor",
	"Entrada PRFI",
	"Previsão de Conclusão",
	"Data de Conclusão",
	"Dias Restantes",
	"Atrasada",
	"Alerta de Prazo",
}

// BuildInvestigationsWorkbook renders the (already filtered) case list as
// an XLSX workbook, including the derived deadline columns.
func BuildInvestigationsWorkbook(investigations []models.Investigation) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheet = "Investigações"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)
	}

	for i, inv := range investigations {
		schedule := DeriveSchedule(&inv)

		daysRemaining := ""
		if schedule.DaysRemaining != nil {
			daysRemaining = fmt.Sprintf("%d", *schedule.DaysRemaining)
		}

		row := []interface{}{
			inv.ID,
			inv.Responsible,
			inv.Status,
			inv.Origin,
			inv.Channel,
			inv.OriginProtocol,
			inv.OriginUnit,
			inv.Classification,
			inv.Subject,
			inv.ProcessRef,
			inv.Year,
			inv.Complexity,
			inv.AccusedName,
			inv.Sector,
			exportDate(inv.IntakeDate),
			exportDate(inv.ForecastDate),
			exportDate(inv.ConclusionDate),
			daysRemaining,
			exportBool(schedule.Overdue),
			exportBool(schedule.ApproachingDeadline),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

func exportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

func exportBool(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}
