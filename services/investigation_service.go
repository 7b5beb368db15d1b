package services

import (
	"errors"
	"fmt"
	"html"
	"sistema_pip_go/models"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// DateLayout is the wire format for date fields (HTML date inputs)
const DateLayout = "2006-01-02"

// narrativePolicy strips any HTML from free-text fields before storage
var narrativePolicy = bluemonday.StrictPolicy()

// InvestigationInput carries the raw form values for create and edit.
// Dates use DateLayout; Year is coerced to an integer during validation.
type InvestigationInput struct {
	Responsible         string `json:"responsible" form:"responsible"`
	Origin              string `json:"origin" form:"origin"`
	Channel             string `json:"channel" form:"channel"`
	OriginProtocol      string `json:"origin_protocol" form:"origin_protocol"`
	AdmissionDecision   string `json:"admission_decision" form:"admission_decision"`
	OriginUnit          string `json:"origin_unit" form:"origin_unit"`
	Classification      string `json:"classification" form:"classification"`
	Subject             string `json:"subject" form:"subject"`
	ProcessRef          string `json:"process_ref" form:"process_ref"`
	Year                string `json:"year" form:"year"`
	Complexity          string `json:"complexity" form:"complexity"`
	Complainant         string `json:"complainant" form:"complainant"`
	AccusedRegistration string `json:"accused_registration" form:"accused_registration"`
	AccusedName         string `json:"accused_name" form:"accused_name"`
	Sector              string `json:"sector" form:"sector"`
	Department          string `json:"department" form:"department"`
	EmploymentBond      string `json:"employment_bond" form:"employment_bond"`
	ObjectSpecification string `json:"object_specification" form:"object_specification"`
	Diligences          string `json:"diligences" form:"diligences"`
	Justification       string `json:"justification" form:"justification"`
	FinalResult         string `json:"final_result" form:"final_result"`
	IntakeDate          string `json:"intake_date" form:"intake_date"`
	InstaurationOrder   string `json:"instauration_order" form:"instauration_order"`
	DistributionPRFIP   string `json:"distribution_prfip" form:"distribution_prfip"`
	DistributionPRFIR   string `json:"distribution_prfir" form:"distribution_prfir"`
	ForecastDate        string `json:"forecast_date" form:"forecast_date"`
	ConclusionDate      string `json:"conclusion_date" form:"conclusion_date"`
	SubmissionPRFI      string `json:"submission_prfi" form:"submission_prfi"`
	SubmissionPRF       string `json:"submission_prf" form:"submission_prf"`
	Status              string `json:"status" form:"status"`
}

// FieldChange records one diffed field for the audit history
type FieldChange struct {
	Label string
	Old   string
	New   string
}

// Line renders the change the way history descriptions expect it
func (fc FieldChange) Line() string {
	return fmt.Sprintf("%s: '%s' → '%s'", fc.Label, fc.Old, fc.New)
}

// textField describes one editable plain-text field. The edit diff
// operates over this closed set rather than free-form key lookups.
type textField struct {
	label     string
	input     func(*InvestigationInput) string
	get       func(*models.Investigation) string
	set       func(*models.Investigation, string)
	narrative bool // sanitized before storage
}

var textFields = []textField{
	{"Responsável", func(in *InvestigationInput) string { return in.Responsible }, func(i *models.Investigation) string { return i.Responsible }, func(i *models.Investigation, v string) { i.Responsible = v }, false},
	{"Origem", func(in *InvestigationInput) string { return in.Origin }, func(i *models.Investigation) string { return i.Origin }, func(i *models.Investigation, v string) { i.Origin = v }, false},
	{"Canal", func(in *InvestigationInput) string { return in.Channel }, func(i *models.Investigation) string { return i.Channel }, func(i *models.Investigation, v string) { i.Channel = v }, false},
	{"Protocolo de Origem", func(in *InvestigationInput) string { return in.OriginProtocol }, func(i *models.Investigation) string { return i.OriginProtocol }, func(i *models.Investigation, v string) { i.OriginProtocol = v }, false},
	{"Admitida ou Inadmitida", func(in *InvestigationInput) string { return in.AdmissionDecision }, func(i *models.Investigation) string { return i.AdmissionDecision }, func(i *models.Investigation, v string) { i.AdmissionDecision = v }, false},
	{"Unidade de Origem", func(in *InvestigationInput) string { return in.OriginUnit }, func(i *models.Investigation) string { return i.OriginUnit }, func(i *models.Investigation, v string) { i.OriginUnit = v }, false},
	{"Classificação", func(in *InvestigationInput) string { return in.Classification }, func(i *models.Investigation) string { return i.Classification }, func(i *models.Investigation, v string) { i.Classification = v }, false},
	{"Assunto", func(in *InvestigationInput) string { return in.Subject }, func(i *models.Investigation) string { return i.Subject }, func(i *models.Investigation, v string) { i.Subject = v }, false},
	{"Processo GDOC", func(in *InvestigationInput) string { return in.ProcessRef }, func(i *models.Investigation) string { return i.ProcessRef }, func(i *models.Investigation, v string) { i.ProcessRef = v }, false},
	{"Complexidade", func(in *InvestigationInput) string { return in.Complexity }, func(i *models.Investigation) string { return i.Complexity }, func(i *models.Investigation, v string) { i.Complexity = v }, false},
	{"Denunciante", func(in *InvestigationInput) string { return in.Complainant }, func(i *models.Investigation) string { return i.Complainant }, func(i *models.Investigation, v string) { i.Complainant = v }, false},
	{"Matrícula do Denunciado", func(in *InvestigationInput) string { return in.AccusedRegistration }, func(i *models.Investigation) string { return i.AccusedRegistration }, func(i *models.Investigation, v string) { i.AccusedRegistration = v }, false},
	{"Nome do Denunciado", func(in *InvestigationInput) string { return in.AccusedName }, func(i *models.Investigation) string { return i.AccusedName }, func(i *models.Investigation, v string) { i.AccusedName = v }, false},
	{"Setor", func(in *InvestigationInput) string { return in.Sector }, func(i *models.Investigation) string { return i.Sector }, func(i *models.Investigation, v string) { i.Sector = v }, false},
	{"Diretoria", func(in *InvestigationInput) string { return in.Department }, func(i *models.Investigation) string { return i.Department }, func(i *models.Investigation, v string) { i.Department = v }, false},
	{"Vínculo", func(in *InvestigationInput) string { return in.EmploymentBond }, func(i *models.Investigation) string { return i.EmploymentBond }, func(i *models.Investigation, v string) { i.EmploymentBond = v }, false},
	{"Objeto/Especificação", func(in *InvestigationInput) string { return in.ObjectSpecification }, func(i *models.Investigation) string { return i.ObjectSpecification }, func(i *models.Investigation, v string) { i.ObjectSpecification = v }, true},
	{"Diligências", func(in *InvestigationInput) string { return in.Diligences }, func(i *models.Investigation) string { return i.Diligences }, func(i *models.Investigation, v string) { i.Diligences = v }, true},
	{"Justificativa", func(in *InvestigationInput) string { return in.Justification }, func(i *models.Investigation) string { return i.Justification }, func(i *models.Investigation, v string) { i.Justification = v }, true},
	{"Resultado Final", func(in *InvestigationInput) string { return in.FinalResult }, func(i *models.Investigation) string { return i.FinalResult }, func(i *models.Investigation, v string) { i.FinalResult = v }, false},
	{"Portaria de Instauração", func(in *InvestigationInput) string { return in.InstaurationOrder }, func(i *models.Investigation) string { return i.InstaurationOrder }, func(i *models.Investigation, v string) { i.InstaurationOrder = v }, false},
}

// dateField describes one editable optional date field (conclusion date
// excluded; it follows the status transition rule).
type dateField struct {
	label string
	input func(*InvestigationInput) string
	get   func(*models.Investigation) *time.Time
	set   func(*models.Investigation, *time.Time)
}

var dateFields = []dateField{
	{"Entrada PRFI", func(in *InvestigationInput) string { return in.IntakeDate }, func(i *models.Investigation) *time.Time { return i.IntakeDate }, func(i *models.Investigation, v *time.Time) { i.IntakeDate = v }},
	{"Distribuição PRFIP", func(in *InvestigationInput) string { return in.DistributionPRFIP }, func(i *models.Investigation) *time.Time { return i.DistributionPRFIP }, func(i *models.Investigation, v *time.Time) { i.DistributionPRFIP = v }},
	{"Distribuição PRFIR", func(in *InvestigationInput) string { return in.DistributionPRFIR }, func(i *models.Investigation) *time.Time { return i.DistributionPRFIR }, func(i *models.Investigation, v *time.Time) { i.DistributionPRFIR = v }},
	{"Previsão de Conclusão", func(in *InvestigationInput) string { return in.ForecastDate }, func(i *models.Investigation) *time.Time { return i.ForecastDate }, func(i *models.Investigation, v *time.Time) { i.ForecastDate = v }},
	{"Envio PRFI", func(in *InvestigationInput) string { return in.SubmissionPRFI }, func(i *models.Investigation) *time.Time { return i.SubmissionPRFI }, func(i *models.Investigation, v *time.Time) { i.SubmissionPRFI = v }},
	{"Envio PRF", func(in *InvestigationInput) string { return in.SubmissionPRF }, func(i *models.Investigation) *time.Time { return i.SubmissionPRF }, func(i *models.Investigation, v *time.Time) { i.SubmissionPRF = v }},
}

// sanitizeText strips HTML from user-supplied free text, keeping the
// plain text (entities unescaped back) intact.
func sanitizeText(s string) string {
	return html.UnescapeString(narrativePolicy.Sanitize(s))
}

func parseOptionalDate(value, label string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	// Parse in local time so form dates land in the same zone as the
	// intake defaults; a UTC parse would shift the midnight instant and
	// diff against stored dates that name the same calendar day.
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return nil, &ValidationError{Field: label, Message: "data inválida (use AAAA-MM-DD)"}
	}
	t = models.DateOnly(t)
	return &t, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// sameDate compares by calendar day, never by instant, so dates parsed
// in different zones for the same day are equal.
func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CreateInvestigation validates the input, applies intake defaults and
// persists the new record together with its mandatory "creation" history
// entry, in one transaction.
func CreateInvestigation(database *gorm.DB, input InvestigationInput, actor string) (*models.Investigation, error) {
	if strings.TrimSpace(input.Responsible) == "" {
		return nil, &ValidationError{Field: "Responsável", Message: "campo obrigatório"}
	}

	inv := &models.Investigation{Status: strings.TrimSpace(input.Status)}
	for _, f := range textFields {
		v := f.input(&input)
		if f.narrative {
			v = sanitizeText(v)
		}
		f.set(inv, v)
	}

	if y := strings.TrimSpace(input.Year); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, &ValidationError{Field: "Ano", Message: "valor numérico inválido"}
		}
		inv.Year = year
	}

	for _, d := range dateFields {
		v, err := parseOptionalDate(d.input(&input), d.label)
		if err != nil {
			return nil, err
		}
		d.set(inv, v)
	}

	// Conclusion date only applies to records created already concluded
	if inv.Status == models.StatusConcluded {
		v, err := parseOptionalDate(input.ConclusionDate, "Data de Conclusão")
		if err != nil {
			return nil, err
		}
		if v == nil {
			today := models.DateOnly(time.Now())
			v = &today
		}
		inv.ConclusionDate = v
	}

	err := database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("failed to create investigation: %w", err)
		}
		return RecordCreation(tx, inv, actor)
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// ApplyEdit diffs the incoming values against the record over the closed
// field set and, if everything validates, applies them in memory. It
// returns the ordered list of changes; an empty list means no-op and the
// caller must skip the audit append. Validation failures leave the record
// untouched.
func ApplyEdit(inv *models.Investigation, input InvestigationInput) ([]FieldChange, error) {
	if strings.TrimSpace(input.Responsible) == "" {
		return nil, &ValidationError{Field: "Responsável", Message: "campo obrigatório"}
	}

	var changes []FieldChange
	var apply []func()

	record := func(c FieldChange, fn func()) {
		changes = append(changes, c)
		apply = append(apply, fn)
	}

	for _, f := range textFields {
		f := f
		newVal := f.input(&input)
		if f.narrative {
			newVal = sanitizeText(newVal)
		}
		if old := f.get(inv); old != newVal {
			v := newVal
			record(FieldChange{f.label, old, v}, func() { f.set(inv, v) })
		}
	}

	if y := strings.TrimSpace(input.Year); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, &ValidationError{Field: "Ano", Message: "valor numérico inválido"}
		}
		if year != inv.Year {
			record(FieldChange{"Ano", strconv.Itoa(inv.Year), strconv.Itoa(year)}, func() { inv.Year = year })
		}
	}

	for _, d := range dateFields {
		d := d
		newVal, err := parseOptionalDate(d.input(&input), d.label)
		if err != nil {
			return nil, err
		}
		if old := d.get(inv); !sameDate(old, newVal) {
			v := newVal
			record(FieldChange{d.label, formatOptionalDate(old), formatOptionalDate(v)}, func() { d.set(inv, v) })
		}
	}

	// Status and conclusion date follow the dedicated transition rule;
	// their effective changes are still reported as diff lines.
	explicitConclusion, err := parseOptionalDate(input.ConclusionDate, "Data de Conclusão")
	if err != nil {
		return nil, err
	}

	oldStatus := inv.Status
	newStatus := strings.TrimSpace(input.Status)
	if newStatus == "" {
		newStatus = oldStatus
	}
	if newStatus != oldStatus {
		v := newStatus
		record(FieldChange{"Status", oldStatus, v}, func() { inv.Status = v })
	}

	switch {
	case newStatus == models.StatusConcluded:
		target := inv.ConclusionDate
		if explicitConclusion != nil {
			target = explicitConclusion
		} else if target == nil {
			today := models.DateOnly(time.Now())
			target = &today
		}
		if !sameDate(inv.ConclusionDate, target) {
			v := target
			record(FieldChange{"Data de Conclusão", formatOptionalDate(inv.ConclusionDate), formatOptionalDate(v)}, func() { inv.ConclusionDate = v })
		}
	case oldStatus == models.StatusConcluded && newStatus != models.StatusConcluded:
		// Leaving "Concluída" clears the conclusion date unconditionally
		if inv.ConclusionDate != nil {
			record(FieldChange{"Data de Conclusão", formatOptionalDate(inv.ConclusionDate), ""}, func() { inv.ConclusionDate = nil })
		}
	}

	for _, fn := range apply {
		fn()
	}
	return changes, nil
}

// EditInvestigation loads the record, applies the diffed edit and, when
// anything changed, persists the record and its single "edit" history
// entry in one transaction.
func EditInvestigation(database *gorm.DB, id uint, input InvestigationInput, actor string) (*models.Investigation, []FieldChange, error) {
	inv, err := GetInvestigation(database, id)
	if err != nil {
		return nil, nil, err
	}

	changes, err := ApplyEdit(inv, input)
	if err != nil {
		return nil, nil, err
	}
	if len(changes) == 0 {
		return inv, nil, nil
	}

	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(inv).Error; err != nil {
			return fmt.Errorf("failed to update investigation: %w", err)
		}
		return RecordEdit(tx, inv, actor, changes)
	})
	if err != nil {
		return nil, nil, err
	}

	return inv, changes, nil
}

// AppendDiligence validates and appends a timestamped diligence block to
// the investigation's free-text log. It returns the diligence text (not
// the formatted block) for history recording. The record is not persisted
// here.
func AppendDiligence(inv *models.Investigation, actor, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ValidationError{Field: "Descrição", Message: "a descrição da diligência não pode estar vazia"}
	}
	trimmed = sanitizeText(trimmed)

	name := actor
	if name == "" {
		name = models.ActorSystem
	}

	block := fmt.Sprintf("[%s] %s:\n%s", time.Now().Format("02/01/2006 15:04"), name, trimmed)
	if inv.Diligences != "" {
		inv.Diligences += "\n\n" + block
	} else {
		inv.Diligences = block
	}

	return trimmed, nil
}

// AddDiligence is the full request flow: load, append, persist the record
// and its "diligence" history entry in one transaction.
func AddDiligence(database *gorm.DB, id uint, actor, text string) (*models.Investigation, error) {
	inv, err := GetInvestigation(database, id)
	if err != nil {
		return nil, err
	}

	recorded, err := AppendDiligence(inv, actor, text)
	if err != nil {
		return nil, err
	}

	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(inv).Error; err != nil {
			return fmt.Errorf("failed to update investigation: %w", err)
		}
		return RecordDiligence(tx, inv, actor, recorded)
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// Schedule is the derived deadline state of an investigation.
// DaysRemaining is nil for concluded records.
type Schedule struct {
	DaysRemaining       *int `json:"days_remaining,omitempty"`
	Overdue             bool `json:"overdue"`
	ApproachingDeadline bool `json:"approaching_deadline"`
}

// DeriveSchedule computes the deadline state per the lifecycle rules:
// days remaining only while not concluded, overdue and approaching only
// while "Em Andamento". Pure; no side effects.
func DeriveSchedule(inv *models.Investigation) Schedule {
	return deriveScheduleAt(inv, time.Now())
}

func deriveScheduleAt(inv *models.Investigation, now time.Time) Schedule {
	var s Schedule
	if inv.IsConcluded() || inv.ForecastDate == nil {
		return s
	}

	days := daysBetween(now, *inv.ForecastDate)
	s.DaysRemaining = &days

	if inv.IsInProgress() {
		s.Overdue = days < 0
		s.ApproachingDeadline = days >= 0 && days <= models.DeadlineAlertWindowDays
	}
	return s
}

// daysBetween counts whole calendar days from one date to another. Both
// are re-anchored to UTC midnights first so DST transitions in the local
// zone cannot shorten or stretch a day.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// GetInvestigation fetches an investigation by id
func GetInvestigation(database *gorm.DB, id uint) (*models.Investigation, error) {
	var inv models.Investigation
	if err := database.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch investigation: %w", err)
	}
	return &inv, nil
}
