package models

import (
	"time"

	"gorm.io/gorm"
)

// Investigation status constants. Status is free text for user-defined
// labels; these two drive the lifecycle and deadline rules.
const (
	StatusInProgress = "Em Andamento"
	StatusConcluded  = "Concluída"
)

const (
	// DefaultForecastDays is the default deadline window applied at intake
	DefaultForecastDays = 120
	// DeadlineAlertWindowDays is the threshold for the approaching-deadline flag
	DeadlineAlertWindowDays = 15
)

// Investigation is a tracked internal-affairs case record
type Investigation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Required
	Responsible string `gorm:"size:100;not null" json:"responsible"`

	// Classification
	Origin            string `gorm:"size:50" json:"origin"`
	Channel           string `gorm:"size:50" json:"channel"`
	OriginProtocol    string `gorm:"size:100" json:"origin_protocol"`
	AdmissionDecision string `gorm:"size:20" json:"admission_decision"`
	OriginUnit        string `gorm:"size:100" json:"origin_unit"`
	Classification    string `gorm:"size:100" json:"classification"`
	Subject           string `gorm:"size:200" json:"subject"`
	ProcessRef        string `gorm:"size:100" json:"process_ref"`
	Year              int    `json:"year"`
	Complexity        string `gorm:"size:20" json:"complexity"`

	// Parties
	Complainant         string `gorm:"size:200" json:"complainant"`
	AccusedRegistration string `gorm:"size:50" json:"accused_registration"`
	AccusedName         string `gorm:"size:200" json:"accused_name"`
	Sector              string `gorm:"size:100" json:"sector"`
	Department          string `gorm:"size:100" json:"department"`
	EmploymentBond      string `gorm:"size:50" json:"employment_bond"`

	// Narrative
	ObjectSpecification string `gorm:"type:text" json:"object_specification"`
	Diligences          string `gorm:"type:text" json:"diligences"`
	Justification       string `gorm:"type:text" json:"justification"`
	FinalResult         string `gorm:"size:200" json:"final_result"`

	// Dates
	IntakeDate        *time.Time `json:"intake_date"`
	InstaurationOrder string     `gorm:"size:100" json:"instauration_order"`
	DistributionPRFIP *time.Time `json:"distribution_prfip"`
	DistributionPRFIR *time.Time `json:"distribution_prfir"`
	ForecastDate      *time.Time `json:"forecast_date"`
	ConclusionDate    *time.Time `json:"conclusion_date"`
	SubmissionPRFI    *time.Time `json:"submission_prfi"`
	SubmissionPRF     *time.Time `json:"submission_prf"`

	Status string `gorm:"size:50" json:"status"`

	// Relationships
	History     []HistoryEntry `gorm:"foreignKey:InvestigationID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
	Attachments []Attachment   `gorm:"foreignKey:InvestigationID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// BeforeCreate applies intake defaults: status, year, intake date and
// forecast (intake + 120 days) when absent.
func (inv *Investigation) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if inv.Status == "" {
		inv.Status = StatusInProgress
	}
	if inv.Year == 0 {
		inv.Year = now.Year()
	}
	if inv.IntakeDate == nil {
		today := DateOnly(now)
		inv.IntakeDate = &today
	}
	if inv.ForecastDate == nil {
		forecast := DateOnly(*inv.IntakeDate).AddDate(0, 0, DefaultForecastDays)
		inv.ForecastDate = &forecast
	}
	return nil
}

// TableName specifies the table name for Investigation model
func (Investigation) TableName() string {
	return "investigations"
}

// IsConcluded checks if the investigation has been concluded
func (inv *Investigation) IsConcluded() bool {
	return inv.Status == StatusConcluded
}

// IsInProgress checks if the investigation is in progress
func (inv *Investigation) IsInProgress() bool {
	return inv.Status == StatusInProgress
}

// DateOnly truncates a time to its date, in local time
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
