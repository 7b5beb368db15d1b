package services

import (
	"bytes"
	"fmt"
	"sistema_pip_go/models"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

// GenerateInvestigationReport lays out the case dossier PDF: header,
// identification, parties, narrative, dates with the derived deadline
// state, and the audit history. Returns the PDF bytes.
func GenerateInvestigationReport(inv *models.Investigation, history []models.HistoryEntry, generatedBy string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(fmt.Sprintf("Sistema PIP - Investigação #%d", inv.ID), true)

	// Core fonts are cp1252; the translator covers Portuguese accents
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(fmt.Sprintf("Relatório de Investigação #%d", inv.ID)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em: %s", time.Now().Format("02/01/2006 15:04"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado por: %s", actorName(generatedBy))), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, tr, "1. Identificação")
	kv(pdf, tr, "Responsável", inv.Responsible)
	kv(pdf, tr, "Status", inv.Status)
	kv(pdf, tr, "Origem", inv.Origin)
	kv(pdf, tr, "Canal", inv.Channel)
	kv(pdf, tr, "Protocolo de Origem", inv.OriginProtocol)
	kv(pdf, tr, "Admitida ou Inadmitida", inv.AdmissionDecision)
	kv(pdf, tr, "Unidade de Origem", inv.OriginUnit)
	kv(pdf, tr, "Classificação", inv.Classification)
	kv(pdf, tr, "Assunto", inv.Subject)
	kv(pdf, tr, "Processo GDOC", inv.ProcessRef)
	kv(pdf, tr, "Ano", strconv.Itoa(inv.Year))
	kv(pdf, tr, "Complexidade", inv.Complexity)
	pdf.Ln(2)

	sectionTitle(pdf, tr, "2. Partes")
	kv(pdf, tr, "Denunciante", inv.Complainant)
	kv(pdf, tr, "Nome do Denunciado", inv.AccusedName)
	kv(pdf, tr, "Matrícula do Denunciado", inv.AccusedRegistration)
	kv(pdf, tr, "Setor", inv.Sector)
	kv(pdf, tr, "Diretoria", inv.Department)
	kv(pdf, tr, "Vínculo", inv.EmploymentBond)
	pdf.Ln(2)

	sectionTitle(pdf, tr, "3. Objeto e Especificação")
	paragraph(pdf, tr, inv.ObjectSpecification)
	pdf.Ln(2)

	sectionTitle(pdf, tr, "4. Diligências")
	paragraph(pdf, tr, inv.Diligences)
	pdf.Ln(2)

	sectionTitle(pdf, tr, "5. Datas e Prazos")
	kv(pdf, tr, "Entrada PRFI", reportDate(inv.IntakeDate))
	kv(pdf, tr, "Portaria de Instauração", inv.InstaurationOrder)
	kv(pdf, tr, "Distribuição PRFIP", reportDate(inv.DistributionPRFIP))
	kv(pdf, tr, "Distribuição PRFIR", reportDate(inv.DistributionPRFIR))
	kv(pdf, tr, "Previsão de Conclusão", reportDate(inv.ForecastDate))
	kv(pdf, tr, "Envio PRFI", reportDate(inv.SubmissionPRFI))
	kv(pdf, tr, "Envio PRF", reportDate(inv.SubmissionPRF))
	kv(pdf, tr, "Data de Conclusão", reportDate(inv.ConclusionDate))

	schedule := DeriveSchedule(inv)
	if schedule.DaysRemaining != nil {
		kv(pdf, tr, "Dias Restantes", strconv.Itoa(*schedule.DaysRemaining))
		switch {
		case schedule.Overdue:
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(180, 30, 30)
			pdf.CellFormat(0, 6, tr("ATENÇÃO: investigação com prazo vencido."), "", 1, "L", false, 0, "")
		case schedule.ApproachingDeadline:
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(150, 100, 0)
			pdf.CellFormat(0, 6, tr("Alerta: prazo de conclusão nos próximos 15 dias."), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)

	sectionTitle(pdf, tr, "6. Resultado")
	kv(pdf, tr, "Resultado Final", inv.FinalResult)
	paragraph(pdf, tr, inv.Justification)
	pdf.Ln(2)

	sectionTitle(pdf, tr, "7. Histórico")
	if len(history) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, tr("(sem registros)"), "", "L", false)
	} else {
		for _, entry := range history {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetTextColor(20, 20, 20)
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s | %s | %s",
				entry.CreatedAt.Format("02/01/2006 15:04"), entry.Kind, entry.Actor)), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(40, 40, 40)
			pdf.MultiCell(0, 4.5, tr(entry.Description), "", "L", false)
			pdf.Ln(1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate report PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, tr func(string) string, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(52, 5.2, tr(key+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, tr(value), "", "L", false)
}

func paragraph(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "", 10)
	if strings.TrimSpace(text) == "" {
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, tr("(não informado)"), "", "L", false)
		return
	}
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5, tr(text), "", "L", false)
}

func reportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
