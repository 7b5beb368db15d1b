package jobs

import (
	"fmt"
	"log"
	"sistema_pip_go/config"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"strings"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartScheduler schedules the daily deadline digest
func StartScheduler(database *gorm.DB, cfg *config.Config) {
	c := cron.New()

	_, err := c.AddFunc(cfg.AlertSchedule, func() {
		log.Println("[CRON] Running deadline alert digest...")
		SendDeadlineAlerts(database, cfg)
	})
	if err != nil {
		log.Fatalf("[CRON] Failed to schedule deadline alerts: %v", err)
	}

	c.Start()
	log.Println("[CRON] Scheduler started")
}

// SendDeadlineAlerts mails a digest of in-progress investigations that
// are overdue or approaching their forecast conclusion date.
func SendDeadlineAlerts(database *gorm.DB, cfg *config.Config) {
	if len(cfg.AlertRecipients) == 0 {
		log.Println("[JOB] No alert recipients configured, skipping deadline digest")
		return
	}

	var investigations []models.Investigation
	err := database.Where("status = ?", models.StatusInProgress).
		Order("forecast_date ASC").
		Find(&investigations).Error
	if err != nil {
		log.Printf("[JOB] Error fetching investigations for deadline digest: %v", err)
		return
	}

	var overdue, approaching []string
	for _, inv := range investigations {
		schedule := services.DeriveSchedule(&inv)
		if schedule.DaysRemaining == nil {
			continue
		}
		line := fmt.Sprintf("#%d %s — responsável %s, previsão %s (%d dias)",
			inv.ID, inv.Subject, inv.Responsible,
			inv.ForecastDate.Format("02/01/2006"), *schedule.DaysRemaining)
		switch {
		case schedule.Overdue:
			overdue = append(overdue, line)
		case schedule.ApproachingDeadline:
			approaching = append(approaching, line)
		}
	}

	if len(overdue) == 0 && len(approaching) == 0 {
		log.Println("[JOB] No overdue or approaching investigations, digest not sent")
		return
	}

	var body strings.Builder
	if len(overdue) > 0 {
		body.WriteString("Investigações com prazo vencido:\n")
		for _, line := range overdue {
			body.WriteString("  - " + line + "\n")
		}
		body.WriteString("\n")
	}
	if len(approaching) > 0 {
		body.WriteString("Investigações com prazo nos próximos 15 dias:\n")
		for _, line := range approaching {
			body.WriteString("  - " + line + "\n")
		}
	}

	email := &services.Email{
		To:       cfg.AlertRecipients,
		Subject:  fmt.Sprintf("Sistema PIP: %d vencidas, %d próximas do prazo", len(overdue), len(approaching)),
		TextBody: body.String(),
	}
	if err := services.SendEmail(cfg, email); err != nil {
		log.Printf("[JOB] Failed to send deadline digest: %v", err)
		return
	}

	log.Printf("[JOB] Deadline digest sent (%d overdue, %d approaching)", len(overdue), len(approaching))
}
