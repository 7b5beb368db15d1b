package services

import (
	"fmt"
	"log"
	"sistema_pip_go/models"

	"gorm.io/gorm"
)

// defaultUsers are created on an empty users table so the system is
// usable on first boot. Passwords must be changed in production.
var defaultUsers = []struct {
	Username string
	Name     string
	Role     string
	Password string
}{
	{"odon", "Odon", models.RoleAdmin, "odon123"},
	{"lucas", "Lucas", models.RoleInvestigator, "lucas123"},
	{"emanuel", "Emanuel", models.RoleInvestigator, "emanuel123"},
	{"erom", "Erom", models.RoleInvestigator, "erom123"},
}

// SeedDefaultUsers creates the default accounts when the users table is
// empty. No-op otherwise.
func SeedDefaultUsers(database *gorm.DB) error {
	var count int64
	if err := database.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range defaultUsers {
		hash, err := HashPassword(u.Password)
		if err != nil {
			return err
		}
		user := models.User{
			Username: u.Username,
			Name:     u.Name,
			Role:     u.Role,
			Password: hash,
			IsActive: true,
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
	}

	log.Printf("[SEED] Created %d default users. Change their passwords before production use.", len(defaultUsers))
	return nil
}
