package services

import (
	"sistema_pip_go/models"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func countHistory(t *testing.T, database *gorm.DB, investigationID uint, kind string) int64 {
	var count int64
	q := database.Model(&models.HistoryEntry{}).Where("investigation_id = ?", investigationID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Count(&count).Error
	assert.NoError(t, err)
	return count
}

func TestCreateInvestigationDefaults(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, inv.Status)
	assert.Equal(t, time.Now().Year(), inv.Year)
	assert.Nil(t, inv.ConclusionDate)

	today := models.DateOnly(time.Now())
	if assert.NotNil(t, inv.IntakeDate) {
		assert.True(t, today.Equal(*inv.IntakeDate))
	}
	if assert.NotNil(t, inv.ForecastDate) {
		expected := today.AddDate(0, 0, models.DefaultForecastDays)
		assert.True(t, expected.Equal(*inv.ForecastDate))
	}

	// Exactly one creation entry, written in the same transaction
	assert.EqualValues(t, 1, countHistory(t, database, inv.ID, models.HistoryKindCreation))

	var entry models.HistoryEntry
	err = database.Where("investigation_id = ?", inv.ID).First(&entry).Error
	assert.NoError(t, err)
	assert.Equal(t, "Lucas", entry.Actor)
	assert.Equal(t, "Investigação criada por Lucas", entry.Description)
}

func TestCreateInvestigationRequiresResponsible(t *testing.T) {
	database := setupTestDB(t)

	_, err := CreateInvestigation(database, InvestigationInput{}, "Lucas")
	assert.True(t, IsValidation(err))

	var count int64
	database.Model(&models.Investigation{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestCreateInvestigationInvalidYear(t *testing.T) {
	database := setupTestDB(t)

	_, err := CreateInvestigation(database, InvestigationInput{
		Responsible: "Lucas",
		Year:        "não-numérico",
	}, "Lucas")
	assert.True(t, IsValidation(err))
}

func TestCreateInvestigationConcludedGetsConclusionDate(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{
		Responsible: "Lucas",
		Status:      models.StatusConcluded,
	}, "Lucas")
	assert.NoError(t, err)

	if assert.NotNil(t, inv.ConclusionDate) {
		assert.True(t, models.DateOnly(time.Now()).Equal(*inv.ConclusionDate))
	}
}

func TestDeriveSchedule(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	forecast := func(days int) *time.Time {
		d := models.DateOnly(now).AddDate(0, 0, days)
		return &d
	}

	t.Run("overdue", func(t *testing.T) {
		inv := &models.Investigation{Status: models.StatusInProgress, ForecastDate: forecast(-5)}
		s := deriveScheduleAt(inv, now)
		if assert.NotNil(t, s.DaysRemaining) {
			assert.Equal(t, -5, *s.DaysRemaining)
		}
		assert.True(t, s.Overdue)
		assert.False(t, s.ApproachingDeadline)
	})

	t.Run("approaching deadline", func(t *testing.T) {
		inv := &models.Investigation{Status: models.StatusInProgress, ForecastDate: forecast(10)}
		s := deriveScheduleAt(inv, now)
		if assert.NotNil(t, s.DaysRemaining) {
			assert.Equal(t, 10, *s.DaysRemaining)
		}
		assert.False(t, s.Overdue)
		assert.True(t, s.ApproachingDeadline)
	})

	t.Run("comfortable margin", func(t *testing.T) {
		inv := &models.Investigation{Status: models.StatusInProgress, ForecastDate: forecast(60)}
		s := deriveScheduleAt(inv, now)
		if assert.NotNil(t, s.DaysRemaining) {
			assert.Equal(t, 60, *s.DaysRemaining)
		}
		assert.False(t, s.Overdue)
		assert.False(t, s.ApproachingDeadline)
	})

	t.Run("concluded has no days remaining", func(t *testing.T) {
		inv := &models.Investigation{Status: models.StatusConcluded, ForecastDate: forecast(-30)}
		s := deriveScheduleAt(inv, now)
		assert.Nil(t, s.DaysRemaining)
		assert.False(t, s.Overdue)
		assert.False(t, s.ApproachingDeadline)
	})

	t.Run("no forecast date", func(t *testing.T) {
		inv := &models.Investigation{Status: models.StatusInProgress}
		s := deriveScheduleAt(inv, now)
		assert.Nil(t, s.DaysRemaining)
	})

	t.Run("other status never flags", func(t *testing.T) {
		inv := &models.Investigation{Status: "Suspensa", ForecastDate: forecast(-5)}
		s := deriveScheduleAt(inv, now)
		if assert.NotNil(t, s.DaysRemaining) {
			assert.Equal(t, -5, *s.DaysRemaining)
		}
		assert.False(t, s.Overdue)
		assert.False(t, s.ApproachingDeadline)
	})
}

func TestDaysBetweenAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// 2026-03-08 is a spring-forward day: only 47 wall-clock hours
	// separate these midnights, but they are two calendar days apart.
	before := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	after := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, daysBetween(before, after))
	assert.Equal(t, -2, daysBetween(after, before))
}

func TestEditNoChangesRecordsNothing(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	before := countHistory(t, database, inv.ID, "")

	_, changes, err := EditInvestigation(database, inv.ID, inputFromInvestigation(inv), "Odon")
	assert.NoError(t, err)
	assert.Empty(t, changes)

	assert.Equal(t, before, countHistory(t, database, inv.ID, ""))
}

func TestEditRoundTripInNonUTCZone(t *testing.T) {
	// The intake defaults are local midnights while form dates arrive as
	// parsed strings; in a zone west of UTC a naive instant comparison
	// flags every date field as changed on an untouched resubmission.
	original := time.Local
	time.Local = time.FixedZone("UTC-3", -3*60*60)
	defer func() { time.Local = original }()

	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	_, changes, err := EditInvestigation(database, inv.ID, inputFromInvestigation(inv), "Odon")
	assert.NoError(t, err)
	assert.Empty(t, changes)
	assert.EqualValues(t, 0, countHistory(t, database, inv.ID, models.HistoryKindEdit))

	// The deadline window is unaffected by the zone offset
	s := DeriveSchedule(inv)
	if assert.NotNil(t, s.DaysRemaining) {
		assert.Equal(t, models.DefaultForecastDays, *s.DaysRemaining)
	}
}

func TestEditMultipleFieldsSingleEntry(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	input := inputFromInvestigation(inv)
	input.Responsible = "Emanuel"
	input.Status = models.StatusConcluded

	updated, changes, err := EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)

	// Responsible, status and the automatic conclusion date
	assert.Len(t, changes, 3)
	assert.Equal(t, "Emanuel", updated.Responsible)
	assert.Equal(t, models.StatusConcluded, updated.Status)
	if assert.NotNil(t, updated.ConclusionDate) {
		assert.True(t, models.DateOnly(time.Now()).Equal(*updated.ConclusionDate))
	}

	// All field changes collapse into one edit entry
	assert.EqualValues(t, 1, countHistory(t, database, inv.ID, models.HistoryKindEdit))

	var entry models.HistoryEntry
	err = database.Where("investigation_id = ? AND kind = ?", inv.ID, models.HistoryKindEdit).
		First(&entry).Error
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.Description, "Investigação editada por Odon:\n"))
	assert.Contains(t, entry.Description, "Responsável: 'Lucas' → 'Emanuel'")
	assert.Contains(t, entry.Description, "Status: 'Em Andamento' → 'Concluída'")
	assert.Contains(t, entry.Description, "Data de Conclusão: ''")
}

func TestEditExplicitConclusionDateWins(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	input := inputFromInvestigation(inv)
	input.Status = models.StatusConcluded
	input.ConclusionDate = "2026-01-15"

	updated, _, err := EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)

	if assert.NotNil(t, updated.ConclusionDate) {
		assert.Equal(t, "2026-01-15", updated.ConclusionDate.Format(DateLayout))
	}
}

func TestEditReopeningClearsConclusionDate(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{
		Responsible: "Lucas",
		Status:      models.StatusConcluded,
	}, "Lucas")
	assert.NoError(t, err)
	assert.NotNil(t, inv.ConclusionDate)

	input := inputFromInvestigation(inv)
	input.Status = models.StatusInProgress

	updated, changes, err := EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)
	assert.Nil(t, updated.ConclusionDate)

	labels := make([]string, 0, len(changes))
	for _, c := range changes {
		labels = append(labels, c.Label)
	}
	assert.Contains(t, labels, "Status")
	assert.Contains(t, labels, "Data de Conclusão")
}

func TestEditIsIdempotent(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	input := inputFromInvestigation(inv)
	input.Subject = "Desvio de recursos"
	input.Status = models.StatusConcluded

	_, changes, err := EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)
	assert.NotEmpty(t, changes)

	// Re-submitting the same values changes nothing
	_, changes, err = EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)
	assert.Empty(t, changes)

	assert.EqualValues(t, 1, countHistory(t, database, inv.ID, models.HistoryKindEdit))
}

func TestEditInvalidDateLeavesRecordUntouched(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	input := inputFromInvestigation(inv)
	input.Responsible = "Emanuel"
	input.ForecastDate = "15/03/2026" // wrong format

	_, _, err = EditInvestigation(database, inv.ID, input, "Odon")
	assert.True(t, IsValidation(err))

	// The valid responsible change must not have been applied either
	reloaded, err := GetInvestigation(database, inv.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Lucas", reloaded.Responsible)
	assert.EqualValues(t, 0, countHistory(t, database, inv.ID, models.HistoryKindEdit))
}

func TestEditSanitizesNarrativeFields(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	input := inputFromInvestigation(inv)
	input.Justification = `<script>alert(1)</script>Conduta incompatível`

	updated, _, err := EditInvestigation(database, inv.ID, input, "Odon")
	assert.NoError(t, err)
	assert.Equal(t, "Conduta incompatível", updated.Justification)
}

func TestEditNotFound(t *testing.T) {
	database := setupTestDB(t)

	_, _, err := EditInvestigation(database, 9999, InvestigationInput{Responsible: "Lucas"}, "Odon")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddDiligence(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	updated, err := AddDiligence(database, inv.ID, "Lucas", "Oitiva da testemunha realizada")
	assert.NoError(t, err)
	assert.Contains(t, updated.Diligences, "Lucas:")
	assert.Contains(t, updated.Diligences, "Oitiva da testemunha realizada")

	var entry models.HistoryEntry
	err = database.Where("investigation_id = ? AND kind = ?", inv.ID, models.HistoryKindDiligence).
		First(&entry).Error
	assert.NoError(t, err)
	assert.Equal(t, "Oitiva da testemunha realizada", entry.Description)

	// A second diligence is separated by a blank line
	updated, err = AddDiligence(database, inv.ID, "Emanuel", "Documentos juntados")
	assert.NoError(t, err)
	assert.Contains(t, updated.Diligences, "\n\n")
	assert.EqualValues(t, 2, countHistory(t, database, inv.ID, models.HistoryKindDiligence))
}

func TestAddDiligenceRejectsBlankText(t *testing.T) {
	database := setupTestDB(t)

	inv, err := CreateInvestigation(database, InvestigationInput{Responsible: "Lucas"}, "Lucas")
	assert.NoError(t, err)

	_, err = AddDiligence(database, inv.ID, "Lucas", "   \n\t ")
	assert.True(t, IsValidation(err))

	reloaded, err := GetInvestigation(database, inv.ID)
	assert.NoError(t, err)
	assert.Empty(t, reloaded.Diligences)
	assert.EqualValues(t, 0, countHistory(t, database, inv.ID, models.HistoryKindDiligence))
}
