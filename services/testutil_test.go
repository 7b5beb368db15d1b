package services

import (
	"sistema_pip_go/models"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique shared memory name to isolate tests while allowing shared cache
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)

	err = testDB.Exec("PRAGMA journal_mode=WAL;").Error
	assert.NoError(t, err)

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Investigation{},
		&models.HistoryEntry{},
		&models.Attachment{},
	)
	assert.NoError(t, err)

	if Storage == nil {
		Storage = NewLocalStorage(t.TempDir())
	}

	return testDB
}

// inputFromInvestigation builds the form values a round-tripped edit of
// the record would submit, so tests can tweak individual fields.
func inputFromInvestigation(inv *models.Investigation) InvestigationInput {
	return InvestigationInput{
		Responsible:         inv.Responsible,
		Origin:              inv.Origin,
		Channel:             inv.Channel,
		OriginProtocol:      inv.OriginProtocol,
		AdmissionDecision:   inv.AdmissionDecision,
		OriginUnit:          inv.OriginUnit,
		Classification:      inv.Classification,
		Subject:             inv.Subject,
		ProcessRef:          inv.ProcessRef,
		Complexity:          inv.Complexity,
		Complainant:         inv.Complainant,
		AccusedRegistration: inv.AccusedRegistration,
		AccusedName:         inv.AccusedName,
		Sector:              inv.Sector,
		Department:          inv.Department,
		EmploymentBond:      inv.EmploymentBond,
		ObjectSpecification: inv.ObjectSpecification,
		Diligences:          inv.Diligences,
		Justification:       inv.Justification,
		FinalResult:         inv.FinalResult,
		InstaurationOrder:   inv.InstaurationOrder,
		IntakeDate:          formatOptionalDate(inv.IntakeDate),
		DistributionPRFIP:   formatOptionalDate(inv.DistributionPRFIP),
		DistributionPRFIR:   formatOptionalDate(inv.DistributionPRFIR),
		ForecastDate:        formatOptionalDate(inv.ForecastDate),
		ConclusionDate:      formatOptionalDate(inv.ConclusionDate),
		SubmissionPRFI:      formatOptionalDate(inv.SubmissionPRFI),
		SubmissionPRF:       formatOptionalDate(inv.SubmissionPRF),
		Status:              inv.Status,
	}
}
