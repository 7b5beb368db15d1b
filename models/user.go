package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User role constants
const (
	RoleAdmin        = "admin"
	RoleInvestigator = "investigador"
	RoleReadOnly     = "consulta"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Username    string     `gorm:"uniqueIndex;not null" json:"username"`
	Password    string     `gorm:"not null" json:"-"`
	Role        string     `gorm:"not null;default:consulta" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// CanWrite reports whether the user may mutate investigations
func (u *User) CanWrite() bool {
	return u.Role == RoleAdmin || u.Role == RoleInvestigator
}

// IsValidRole checks if the role is one of the three permission tiers
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleInvestigator || role == RoleReadOnly
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
